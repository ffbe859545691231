package services

import (
	"context"

	"github.com/earshelf/earshelf/internal/database/progress"
	"github.com/earshelf/earshelf/internal/database/sessions"
	"github.com/earshelf/earshelf/internal/database/settings"
	"github.com/earshelf/earshelf/internal/entities"
)

// ProgressStore reads and merges listening progress.
type ProgressStore interface {
	Get(ctx context.Context, userID, bookID uint) (*entities.Progress, error)
	Upsert(ctx context.Context, report progress.Report) (*progress.SyncResult, error)
	Resume(ctx context.Context, userID, bookID uint) (*progress.ResumePoint, error)
}

// SettingsStore reads and writes per-user book settings.
type SettingsStore interface {
	Effective(ctx context.Context, bookID, userID uint) (entities.BookSettings, error)
	Upsert(ctx context.Context, bookID, userID uint, update settings.Update) (*entities.BookSettings, error)
}

// SessionRecorder opens and closes playback sessions.
type SessionRecorder interface {
	Open(ctx context.Context, params sessions.OpenParams) (string, error)
	Close(ctx context.Context, id string, params sessions.CloseParams) error
	Get(ctx context.Context, id string) (*entities.PlaybackSession, error)
}

// DeviceLister reports which devices a user listens on.
type DeviceLister interface {
	List(ctx context.Context, userID uint) ([]entities.DeviceActivity, error)
}

// Auditor records what happened, off the request path.
type Auditor interface {
	LogProgressSync(userID, bookID uint, device string, positionMs int64, outcome string, err error)
	LogSettings(userID, bookID uint, action, description string, err error)
	LogSession(userID, bookID uint, action, sessionID, device string, err error)
}
