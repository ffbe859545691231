// Package progress stores where each user is in each book.
//
// There is exactly one Progress row per (user, book). Reports from several
// devices are merged with a last-writer-by-timestamp policy: a report whose
// interaction time is not earlier than the stored one replaces position,
// chapter and device attribution; an earlier report is rejected as stale,
// but the device's activity is still recorded.
//
// Resume applies smart rewind on top of the stored position without ever
// changing it.
//
// # Usage
//
//	repo := progress.NewRepository(db, progress.DefaultRewindPolicy(), clock.New())
//	result, err := repo.Upsert(ctx, progress.Report{UserID: 1, BookID: 2, PositionMs: 61000, Device: "phone"})
//	if errors.Is(err, database.ErrStaleWrite) {
//		// result.Progress holds the authoritative row to re-sync from
//	}
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earshelf/earshelf/internal/clock"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/devices"
	"github.com/earshelf/earshelf/internal/entities"
)

var ErrInvalidReport = errors.New("invalid progress report")

type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeAdvanced Outcome = "advanced"
	OutcomeStale    Outcome = "stale" // position not advanced
)

// Report is one position update sent by a device. When Device is empty the
// device of the playback session named by SessionID is used.
type Report struct {
	UserID        uint
	BookID        uint
	PositionMs    int64
	Chapter       string
	InteractionAt time.Time // zero means now
	Device        string
	SessionID     string
}

type SyncResult struct {
	Progress *entities.Progress // the stored row after the call
	Outcome  Outcome
	Device   string
	Retried  bool
}

// Accepted reports whether the report's position was stored.
func (r *SyncResult) Accepted() bool {
	return r.Outcome != OutcomeStale
}

// ResumePoint is where playback should continue after a pause.
type ResumePoint struct {
	Progress           *entities.Progress
	PositionMs         int64 // stored position
	ResumeAtMs         int64 // stored position minus smart rewind
	SmartRewindSeconds int
	Idle               time.Duration
	Chapter            *entities.Chapter // chapter containing PositionMs, if known
}

// Repository handles all progress database operations.
type Repository struct {
	db     *gorm.DB
	policy RewindPolicy
	clock  clock.Clock
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB, policy RewindPolicy, clk clock.Clock) *Repository {
	if clk == nil {
		clk = clock.New()
	}
	return &Repository{db: db, policy: policy, clock: clk}
}

// Get returns the progress for (userID, bookID), or nil when none exists.
func (r *Repository) Get(ctx context.Context, userID, bookID uint) (*entities.Progress, error) {
	row, err := database.FindOne[entities.Progress](r.db.WithContext(ctx), "user_id = ? AND book_id = ?", userID, bookID)
	if err != nil {
		return nil, database.Classify("progress.get", err)
	}
	return row, nil
}

// Upsert merges a report into the stored progress.
//
// A stale report returns the authoritative row together with an error
// matching database.ErrStaleWrite; the device activity of a stale report is
// committed all the same.
func (r *Repository) Upsert(ctx context.Context, report Report) (*SyncResult, error) {
	if report.PositionMs < 0 {
		return nil, fmt.Errorf("%w: negative position %d", ErrInvalidReport, report.PositionMs)
	}
	if report.Device == "" && report.SessionID == "" {
		return nil, fmt.Errorf("%w: device or session required", ErrInvalidReport)
	}

	at := report.InteractionAt
	if at.IsZero() {
		at = r.clock.Now()
	}
	at = at.UTC().Truncate(time.Millisecond)

	const op = "progress.upsert"
	var result *SyncResult
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		device, err := resolveDevice(tx, report)
		if err != nil {
			return err
		}

		stale := false
		upserted, err := database.Upsert(tx, op, database.UpsertFuncs[entities.Progress]{
			Find: func(tx *gorm.DB) (*entities.Progress, error) {
				return database.FindOne[entities.Progress](tx, "user_id = ? AND book_id = ?", report.UserID, report.BookID)
			},
			Create: func(tx *gorm.DB) (*entities.Progress, error) {
				row := &entities.Progress{
					UserID:            report.UserID,
					BookID:            report.BookID,
					PositionMs:        report.PositionMs,
					LastChapter:       report.Chapter,
					LastInteractionAt: at,
					Device:            device,
				}
				return row, tx.Omit(clause.Associations).Create(row).Error
			},
			Update: func(tx *gorm.DB, existing *entities.Progress) (*entities.Progress, error) {
				stale = at.Before(existing.LastInteractionAt)
				if stale {
					return existing, nil
				}
				existing.PositionMs = report.PositionMs
				existing.LastChapter = report.Chapter
				existing.LastInteractionAt = at
				existing.Device = device
				return existing, tx.Omit(clause.Associations).Save(existing).Error
			},
		})
		if err != nil {
			return err
		}

		if _, err := devices.Touch(tx, report.UserID, device, report.BookID, at, stale); err != nil {
			return err
		}

		result = &SyncResult{Progress: upserted.Row, Device: device, Retried: upserted.Retried}
		switch {
		case upserted.Created:
			result.Outcome = OutcomeCreated
		case stale:
			result.Outcome = OutcomeStale
		default:
			result.Outcome = OutcomeAdvanced
		}
		return nil
	})
	if err != nil {
		return nil, database.Classify(op, err)
	}

	if result.Outcome == OutcomeStale {
		return result, &database.Error{
			Kind: database.ErrStaleWrite,
			Op:   op,
			Err: fmt.Errorf("report at %s is older than stored %s",
				at.Format(time.RFC3339Nano), result.Progress.LastInteractionAt.UTC().Format(time.RFC3339Nano)),
		}
	}
	return result, nil
}

// resolveDevice returns the device a report is attributed to, falling back
// to the device its playback session was opened on.
func resolveDevice(tx *gorm.DB, report Report) (string, error) {
	if report.Device != "" {
		return report.Device, nil
	}
	session, err := database.FindOne[entities.PlaybackSession](tx, "id = ?", report.SessionID)
	if err != nil {
		return "", err
	}
	if session == nil || session.UserID != report.UserID || session.BookID != report.BookID {
		return "", database.NotFound("progress.upsert", "session %s for user %d and book %d", report.SessionID, report.UserID, report.BookID)
	}
	if session.Device == "" {
		return "", fmt.Errorf("%w: session %s has no device", ErrInvalidReport, session.ID)
	}
	return session.Device, nil
}

// Resume returns the position playback should continue from and records
// the rewind it applied. The stored position and interaction time are left
// untouched.
func (r *Repository) Resume(ctx context.Context, userID, bookID uint) (*ResumePoint, error) {
	const op = "progress.resume"
	now := r.clock.Now()

	var point *ResumePoint
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		row, err := database.FindOne[entities.Progress](tx, "user_id = ? AND book_id = ?", userID, bookID)
		if err != nil {
			return err
		}
		if row == nil {
			return database.NotFound(op, "no progress for user %d and book %d", userID, bookID)
		}

		offset, err := r.rewindOffset(tx, row, now)
		if err != nil {
			return err
		}

		var chapters []entities.Chapter
		if err := tx.Where("book_id = ?", bookID).Find(&chapters).Error; err != nil {
			return err
		}

		point = &ResumePoint{
			Progress:   row,
			PositionMs: row.PositionMs,
			ResumeAtMs: row.PositionMs - offset.Milliseconds(),
			Idle:       idleSince(row.LastInteractionAt, now),
		}

		var floor int64
		if chapter, ok := entities.ChapterAt(chapters, row.PositionMs); ok {
			floor = chapter.StartMs
			point.Chapter = &chapter
		}
		if point.ResumeAtMs < floor {
			point.ResumeAtMs = floor
		}

		applied := time.Duration(point.PositionMs-point.ResumeAtMs) * time.Millisecond
		point.SmartRewindSeconds = int(applied.Round(time.Second) / time.Second)

		if row.SmartRewindSeconds != point.SmartRewindSeconds {
			err := tx.Model(row).UpdateColumn("smart_rewind_seconds", point.SmartRewindSeconds).Error
			if err != nil {
				return err
			}
			row.SmartRewindSeconds = point.SmartRewindSeconds
		}
		return nil
	})
	if err != nil {
		return nil, database.Classify(op, err)
	}
	return point, nil
}

func (r *Repository) rewindOffset(tx *gorm.DB, row *entities.Progress, now time.Time) (time.Duration, error) {
	user, err := database.FindOne[entities.User](tx, "id = ?", row.UserID)
	if err != nil {
		return 0, err
	}
	if user != nil && !user.Preferences.Data().SmartRewindEnabled() {
		return 0, nil
	}

	threshold := r.policy.DefaultThreshold
	settings, err := database.FindOne[entities.BookSettings](tx, "book_id = ? AND user_id = ?", row.BookID, row.UserID)
	if err != nil {
		return 0, err
	}
	if settings != nil {
		threshold = settings.SmartRewindThreshold()
	}

	return r.policy.Offset(idleSince(row.LastInteractionAt, now), threshold), nil
}

func idleSince(last, now time.Time) time.Duration {
	if idle := now.Sub(last); idle > 0 {
		return idle
	}
	return 0
}

// Remove deletes the user's progress for a book ("remove from history").
func (r *Repository) Remove(ctx context.Context, userID, bookID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.Progress{})
	if result.Error != nil {
		return database.Classify("progress.remove", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NotFound("progress.remove", "no progress for user %d and book %d", userID, bookID)
	}
	return nil
}
