package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/progress"
	"github.com/earshelf/earshelf/internal/database/sessions"
	"github.com/earshelf/earshelf/internal/database/settings"
	"github.com/earshelf/earshelf/internal/entities"
)

// PlaybackService is what the API layer calls while a user listens: it
// brackets playback with sessions, merges progress reports and keeps the
// audit log.
type PlaybackService struct {
	progress ProgressStore
	settings SettingsStore
	sessions SessionRecorder
	devices  DeviceLister
	audit    Auditor
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(progress ProgressStore, settings SettingsStore, sessions SessionRecorder, devices DeviceLister, audit Auditor) *PlaybackService {
	return &PlaybackService{
		progress: progress,
		settings: settings,
		sessions: sessions,
		devices:  devices,
		audit:    audit,
	}
}

// Playback is everything a player needs to start a book.
type Playback struct {
	SessionID string
	Resume    *progress.ResumePoint // nil on first listen
	Settings  entities.BookSettings
}

// StartSession returns where to resume and how to play, then opens a
// session. No session is opened when either read fails.
func (s *PlaybackService) StartSession(ctx context.Context, params sessions.OpenParams) (*Playback, error) {
	resume, err := s.progress.Resume(ctx, params.UserID, params.BookID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	effective, err := s.settings.Effective(ctx, params.BookID, params.UserID)
	if err != nil {
		return nil, err
	}

	id, err := s.sessions.Open(ctx, params)
	s.audit.LogSession(params.UserID, params.BookID, "session_open", id, params.Device, err)
	if err != nil {
		return nil, err
	}
	return &Playback{SessionID: id, Resume: resume, Settings: effective}, nil
}

// ReportProgress merges a position report. A stale report comes back with
// the authoritative row and an error matching database.ErrStaleWrite.
func (s *PlaybackService) ReportProgress(ctx context.Context, report progress.Report) (*progress.SyncResult, error) {
	result, err := s.progress.Upsert(ctx, report)

	outcome := "failed"
	device := report.Device
	if result != nil {
		outcome = string(result.Outcome)
		device = result.Device
	}
	if errors.Is(err, database.ErrStaleWrite) {
		log.Printf("[SYNC] Stale report from %s for user %d book %d ignored", device, report.UserID, report.BookID)
	}
	if errors.Is(err, progress.ErrInvalidReport) {
		// Caller errors are not audited.
		return nil, err
	}
	s.audit.LogProgressSync(report.UserID, report.BookID, device, report.PositionMs, outcome, err)
	return result, err
}

// EndSession closes a session, storing its final position first when one
// is given.
func (s *PlaybackService) EndSession(ctx context.Context, sessionID string, params sessions.CloseParams, final *progress.Report) (*progress.SyncResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, database.NotFound("playback.end_session", "session %s already closed", sessionID)
	}

	var result *progress.SyncResult
	if final != nil {
		report := *final
		report.UserID, report.BookID, report.SessionID = session.UserID, session.BookID, session.ID
		result, err = s.ReportProgress(ctx, report)
		if err != nil && !errors.Is(err, database.ErrStaleWrite) {
			return nil, err
		}
	}

	err = s.sessions.Close(ctx, sessionID, params)
	s.audit.LogSession(session.UserID, session.BookID, "session_close", sessionID, session.Device, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resume returns the resume point for a book the user has started.
func (s *PlaybackService) Resume(ctx context.Context, userID, bookID uint) (*progress.ResumePoint, error) {
	return s.progress.Resume(ctx, userID, bookID)
}

// UpdateSettings applies a partial settings update.
func (s *PlaybackService) UpdateSettings(ctx context.Context, userID, bookID uint, update settings.Update) (*entities.BookSettings, error) {
	row, err := s.settings.Upsert(ctx, bookID, userID, update)
	if errors.Is(err, settings.ErrInvalidSettings) {
		return nil, err
	}
	s.audit.LogSettings(userID, bookID, "settings_upsert", fmt.Sprintf("Settings for book %d", bookID), err)
	return row, err
}

// Devices lists the devices that reported progress for the user, most
// recently seen first.
func (s *PlaybackService) Devices(ctx context.Context, userID uint) ([]entities.DeviceActivity, error) {
	return s.devices.List(ctx, userID)
}
