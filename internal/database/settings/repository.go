// Package settings provides database operations for per-user book settings.
//
// A BookSettings row is created on the first customization of a book by a
// user and updated in place afterwards. Only the fields present in an
// Update are written; everything else keeps its stored or default value.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	speed := 1.25
//	s, err := repo.Upsert(ctx, bookID, userID, settings.Update{PlaybackSpeed: &speed})
package settings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

const MaxPlaybackSpeed = 4.0

var ErrInvalidSettings = errors.New("invalid settings")

// Update lists the fields a caller wants written. Nil fields are left alone.
type Update struct {
	PlaybackSpeed           *float64
	VolumeBoostDB           *float64
	SkipIntroSec            *int
	SkipOutroSec            *int
	LoudnessTargetLUFS      *float64
	SmartRewindThresholdSec *int
	SilenceSkipThresholdDB  *float64
	DrivingModeEnabled      *bool
	SleepTimerMinutes       *int
	ClearSleepTimer         bool
}

// Validate rejects values no player can honor.
func (u Update) Validate() error {
	if u.PlaybackSpeed != nil && (*u.PlaybackSpeed <= 0 || *u.PlaybackSpeed > MaxPlaybackSpeed) {
		return fmt.Errorf("%w: playback speed %.2f outside (0, %.0f]", ErrInvalidSettings, *u.PlaybackSpeed, MaxPlaybackSpeed)
	}
	if u.SmartRewindThresholdSec != nil && *u.SmartRewindThresholdSec < 0 {
		return fmt.Errorf("%w: negative smart rewind threshold", ErrInvalidSettings)
	}
	if u.SkipIntroSec != nil && *u.SkipIntroSec < 0 {
		return fmt.Errorf("%w: negative intro skip", ErrInvalidSettings)
	}
	if u.SkipOutroSec != nil && *u.SkipOutroSec < 0 {
		return fmt.Errorf("%w: negative outro skip", ErrInvalidSettings)
	}
	if u.SleepTimerMinutes != nil && *u.SleepTimerMinutes <= 0 {
		return fmt.Errorf("%w: sleep timer must be positive", ErrInvalidSettings)
	}
	return nil
}

// Apply copies the supplied fields onto s.
func (u Update) Apply(s *entities.BookSettings) {
	if u.PlaybackSpeed != nil {
		s.PlaybackSpeed = *u.PlaybackSpeed
	}
	if u.VolumeBoostDB != nil {
		s.VolumeBoostDB = *u.VolumeBoostDB
	}
	if u.SkipIntroSec != nil {
		s.SkipIntroSec = *u.SkipIntroSec
	}
	if u.SkipOutroSec != nil {
		s.SkipOutroSec = *u.SkipOutroSec
	}
	if u.LoudnessTargetLUFS != nil {
		s.LoudnessTargetLUFS = *u.LoudnessTargetLUFS
	}
	if u.SmartRewindThresholdSec != nil {
		s.SmartRewindThresholdSec = *u.SmartRewindThresholdSec
	}
	if u.SilenceSkipThresholdDB != nil {
		s.SilenceSkipThresholdDB = *u.SilenceSkipThresholdDB
	}
	if u.DrivingModeEnabled != nil {
		s.DrivingModeEnabled = *u.DrivingModeEnabled
	}
	switch {
	case u.ClearSleepTimer:
		s.SleepTimerMinutes = nil
	case u.SleepTimerMinutes != nil:
		minutes := *u.SleepTimerMinutes
		s.SleepTimerMinutes = &minutes
	}
}

// Repository handles all book settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the settings for (bookID, userID), or nil when the user never
// customized the book.
func (r *Repository) Get(ctx context.Context, bookID, userID uint) (*entities.BookSettings, error) {
	row, err := database.FindOne[entities.BookSettings](r.db.WithContext(ctx), "book_id = ? AND user_id = ?", bookID, userID)
	if err != nil {
		return nil, database.Classify("settings.get", err)
	}
	return row, nil
}

// Effective returns the stored settings or the defaults when there are none.
func (r *Repository) Effective(ctx context.Context, bookID, userID uint) (entities.BookSettings, error) {
	row, err := r.Get(ctx, bookID, userID)
	if err != nil {
		return entities.BookSettings{}, err
	}
	if row == nil {
		return entities.DefaultBookSettings(bookID, userID), nil
	}
	return *row, nil
}

// Upsert creates or updates the settings row and returns it as stored.
func (r *Repository) Upsert(ctx context.Context, bookID, userID uint, update Update) (*entities.BookSettings, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	const op = "settings.upsert"
	var result *database.UpsertResult[entities.BookSettings]
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var err error
		result, err = database.Upsert(tx, op, database.UpsertFuncs[entities.BookSettings]{
			Find: func(tx *gorm.DB) (*entities.BookSettings, error) {
				return database.FindOne[entities.BookSettings](tx, "book_id = ? AND user_id = ?", bookID, userID)
			},
			Create: func(tx *gorm.DB) (*entities.BookSettings, error) {
				row := entities.DefaultBookSettings(bookID, userID)
				update.Apply(&row)
				return &row, tx.Omit(clause.Associations).Create(&row).Error
			},
			Update: func(tx *gorm.DB, existing *entities.BookSettings) (*entities.BookSettings, error) {
				update.Apply(existing)
				return existing, tx.Omit(clause.Associations).Save(existing).Error
			},
		})
		return err
	})
	if err != nil {
		return nil, database.Classify(op, err)
	}
	return result.Row, nil
}

// Delete drops the row so the book falls back to defaults.
func (r *Repository) Delete(ctx context.Context, bookID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&entities.BookSettings{})
	if result.Error != nil {
		return database.Classify("settings.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NotFound("settings.delete", "no settings for book %d and user %d", bookID, userID)
	}
	return nil
}
