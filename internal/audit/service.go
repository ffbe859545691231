package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/audit"
	"github.com/earshelf/earshelf/internal/entities"
)

const maxMessageLen = 500

// Service provides high-level audit logging functionality. Events are
// written in the background so that auditing never slows a sync down.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			log.Printf("Failed to log audit event %s/%s: %v", event.EventType, event.Action, err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync is written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogProgressSync records the outcome of one progress report.
func (s *Service) LogProgressSync(userID, bookID uint, device string, positionMs int64, outcome string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventProgressSync,
		Action:      "progress_" + outcome,
		Description: fmt.Sprintf("Position %s reported by %s", time.Duration(positionMs)*time.Millisecond, device),
		BookID:      &bookID,
		Device:      device,
		Details:     details(map[string]any{"position_ms": positionMs, "outcome": outcome}),
		Status:      entities.AuditStatusSuccess,
	}
	applyError(event, err)
	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(userID, bookID uint, action, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		BookID:      &bookID,
		Status:      entities.AuditStatusSuccess,
	}
	applyError(event, err)
	s.LogAsync(event)
}

// LogSession records a session being opened or closed.
func (s *Service) LogSession(userID, bookID uint, action, sessionID, device string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSession,
		Action:      action,
		Description: "Session " + sessionID,
		BookID:      &bookID,
		Device:      device,
		Details:     details(map[string]any{"session_id": sessionID}),
		Status:      entities.AuditStatusSuccess,
	}
	applyError(event, err)
	s.LogAsync(event)
}

// LogMaintenance records a background job run. System events have no user.
func (s *Service) LogMaintenance(action, description string, affected int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Details:     details(map[string]any{"affected": affected}),
		Status:      entities.AuditStatusSuccess,
	}
	applyError(event, err)
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func applyError(event *entities.AuditEvent, err error) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	if errors.Is(err, database.ErrStaleWrite) {
		event.Status = entities.AuditStatusRejected
	}
	event.ErrorMsg = truncate(err.Error(), maxMessageLen)
}

func details(v map[string]any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
