package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Sessions: config.Sessions{AbandonAfter: 6 * time.Hour, SweepSchedule: "*/30 * * * *"},
		Audit:    config.Audit{RetentionDays: 14, CleanupSchedule: "0 3 * * *"},
	}
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/30 * * * *"))
	assert.NoError(t, ValidateCronSchedule("0 3 * * 1-5"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &fakeQueue{}
	s := NewMaintenanceScheduler(queue, MaintenanceJobs(testConfig())...)

	id, err := s.RunNow("close_abandoned_sessions")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	_, err = s.RunNow("cleanup_audit_events")
	require.NoError(t, err)

	require.Len(t, queue.tasks, 2)
	assert.Equal(t, tasks.CloseAbandonedSessionsTask{AbandonAfterSeconds: 6 * 3600}, queue.tasks[0])
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 14}, queue.tasks[1])

	_, err = s.RunNow("reindex")
	assert.Error(t, err)
}

func TestMaintenanceScheduler_RunNowQueueError(t *testing.T) {
	queue := &fakeQueue{err: errors.New("queue closed")}
	s := NewMaintenanceScheduler(queue, MaintenanceJobs(testConfig())...)

	_, err := s.RunNow("cleanup_audit_events")
	assert.ErrorContains(t, err, "queue closed")
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, MaintenanceJobs(testConfig())...)

	assert.Nil(t, s.GetNextRunTime("cleanup_audit_events"))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime("cleanup_audit_events")
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 3, next.Hour())
	assert.Nil(t, s.GetNextRunTime("reindex"))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime("cleanup_audit_events"))
}

func TestMaintenanceScheduler_StopsWithContext(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeQueue{}, MaintenanceJobs(testConfig())...)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.CleanupSchedule = "not a schedule"
	s := NewMaintenanceScheduler(&fakeQueue{}, MaintenanceJobs(cfg)...)

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "cleanup_audit_events")
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_SkipsEmptySchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Sessions.SweepSchedule = ""
	s := NewMaintenanceScheduler(&fakeQueue{}, MaintenanceJobs(cfg)...)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Nil(t, s.GetNextRunTime("close_abandoned_sessions"))
	assert.NotNil(t, s.GetNextRunTime("cleanup_audit_events"))
}
