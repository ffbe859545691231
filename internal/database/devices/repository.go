// Package devices records which devices report progress for a user.
//
// Activity is written inside the caller's transaction so that a rejected
// progress report still leaves a trace of the device that sent it.
package devices

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Touch records one report from device inside tx. stale marks a report the
// progress policy rejected.
func Touch(tx *gorm.DB, userID uint, device string, bookID uint, at time.Time, stale bool) (*entities.DeviceActivity, error) {
	staleWrites := 0
	if stale {
		staleWrites = 1
	}

	result, err := database.Upsert(tx, "devices.touch", database.UpsertFuncs[entities.DeviceActivity]{
		Find: func(tx *gorm.DB) (*entities.DeviceActivity, error) {
			return database.FindOne[entities.DeviceActivity](tx, "user_id = ? AND device = ?", userID, device)
		},
		Create: func(tx *gorm.DB) (*entities.DeviceActivity, error) {
			row := &entities.DeviceActivity{
				UserID:      userID,
				Device:      device,
				LastBookID:  bookID,
				LastSeenAt:  at,
				Reports:     1,
				StaleWrites: staleWrites,
			}
			return row, tx.Omit(clause.Associations).Create(row).Error
		},
		Update: func(tx *gorm.DB, existing *entities.DeviceActivity) (*entities.DeviceActivity, error) {
			existing.LastBookID = bookID
			if at.After(existing.LastSeenAt) {
				existing.LastSeenAt = at
			}
			existing.Reports++
			existing.StaleWrites += staleWrites
			return existing, tx.Omit(clause.Associations).Save(existing).Error
		},
	})
	if err != nil {
		return nil, err
	}
	return result.Row, nil
}

// List returns the user's devices, most recently seen first.
func (r *Repository) List(ctx context.Context, userID uint) ([]entities.DeviceActivity, error) {
	var rows []entities.DeviceActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, database.Classify("devices.list", err)
	}
	return rows, nil
}

// Get returns one device's activity, or nil when it never reported.
func (r *Repository) Get(ctx context.Context, userID uint, device string) (*entities.DeviceActivity, error) {
	row, err := database.FindOne[entities.DeviceActivity](r.db.WithContext(ctx), "user_id = ? AND device = ?", userID, device)
	if err != nil {
		return nil, database.Classify("devices.get", err)
	}
	return row, nil
}
