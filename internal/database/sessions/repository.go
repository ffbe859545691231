// Package sessions records playback sessions.
//
// Sessions are append-only: Open inserts a row, Close sets ended_at and the
// playback details exactly once. Closing a closed or unknown session is a
// database.ErrNotFound.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earshelf/earshelf/internal/clock"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

type OpenParams struct {
	UserID  uint
	BookID  uint
	Device  string
	Network entities.NetworkClass
}

// CloseParams carries the details known when playback stops. Nil fields
// keep their stored values.
type CloseParams struct {
	Bitrate            *int
	LoudnessNormalized *bool
	SilenceSkipped     *bool
	MediaMetadata      map[string]any
}

type Repository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewRepository(db *gorm.DB, clk clock.Clock) *Repository {
	if clk == nil {
		clk = clock.New()
	}
	return &Repository{db: db, clock: clk}
}

// Open starts a session and returns its id.
func (r *Repository) Open(ctx context.Context, params OpenParams) (string, error) {
	session := &entities.PlaybackSession{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		BookID:    params.BookID,
		StartedAt: r.clock.Now(),
		Device:    params.Device,
		Network:   params.Network,
	}
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(session).Error
	})
	if err != nil {
		return "", database.Classify("sessions.open", err)
	}
	return session.ID, nil
}

// Close ends an open session. The update only matches rows whose ended_at
// is still null, so a session can be closed once.
func (r *Repository) Close(ctx context.Context, id string, params CloseParams) error {
	const op = "sessions.close"

	updates := map[string]any{"ended_at": r.clock.Now()}
	if params.Bitrate != nil {
		updates["bitrate"] = *params.Bitrate
	}
	if params.LoudnessNormalized != nil {
		updates["loudness_normalized"] = *params.LoudnessNormalized
	}
	if params.SilenceSkipped != nil {
		updates["silence_skipped"] = *params.SilenceSkipped
	}
	if params.MediaMetadata != nil {
		raw, err := json.Marshal(params.MediaMetadata)
		if err != nil {
			return fmt.Errorf("encode media metadata: %w", err)
		}
		updates["media_metadata"] = datatypes.JSON(raw)
	}

	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&entities.PlaybackSession{}).
			Where("id = ? AND ended_at IS NULL", id).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.NotFound(op, "no open session %s", id)
		}
		return nil
	})
	return database.Classify(op, err)
}

// Get returns a session by id.
func (r *Repository) Get(ctx context.Context, id string) (*entities.PlaybackSession, error) {
	row, err := database.FindOne[entities.PlaybackSession](r.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, database.Classify("sessions.get", err)
	}
	if row == nil {
		return nil, database.NotFound("sessions.get", "session %s", id)
	}
	return row, nil
}

// LatestOpen returns the most recently started open session for a user and
// book, or nil when there is none.
func (r *Repository) LatestOpen(ctx context.Context, userID, bookID uint) (*entities.PlaybackSession, error) {
	var rows []entities.PlaybackSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND ended_at IS NULL", userID, bookID).
		Order("started_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, database.Classify("sessions.latest_open", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListForUser returns a user's sessions, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uint, limit int) ([]entities.PlaybackSession, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []entities.PlaybackSession
	if err := query.Find(&rows).Error; err != nil {
		return nil, database.Classify("sessions.list", err)
	}
	return rows, nil
}

// CloseAbandoned ends every session still open after olderThan has passed
// since it started, and returns how many were closed.
func (r *Repository) CloseAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := r.clock.Now()
	var closed int64
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&entities.PlaybackSession{}).
			Where("ended_at IS NULL AND started_at < ?", now.Add(-olderThan)).
			Update("ended_at", now)
		closed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, database.Classify("sessions.close_abandoned", err)
	}
	return closed, nil
}
