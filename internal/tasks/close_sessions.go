package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
)

// SessionSweeper closes playback sessions that were never ended.
type SessionSweeper interface {
	CloseAbandoned(ctx context.Context, olderThan time.Duration) (int64, error)
}

const defaultAbandonAfter = 12 * time.Hour

// CloseAbandonedSessionsTask ends sessions left open longer than
// AbandonAfterSeconds, e.g. by a player that crashed or lost its network.
type CloseAbandonedSessionsTask struct {
	AbandonAfterSeconds int64 `json:"abandon_after_seconds"`
}

// Config returns the queue configuration for session sweeps. Sweeps are
// cheap and idempotent, so they retry quickly.
func (t CloseAbandonedSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "close_abandoned_sessions",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention:   maintenanceRetention,
	}
}

func CloseAbandonedSessionsProcessor(sweeper SessionSweeper, logger MaintenanceLogger) backlite.QueueProcessor[CloseAbandonedSessionsTask] {
	return func(ctx context.Context, task CloseAbandonedSessionsTask) error {
		if sweeper == nil {
			return errors.New("close_abandoned_sessions: no session store")
		}

		olderThan := time.Duration(task.AbandonAfterSeconds) * time.Second
		if olderThan <= 0 {
			olderThan = defaultAbandonAfter
		}

		closed, err := sweeper.CloseAbandoned(ctx, olderThan)
		return finish(logger, "close_abandoned_sessions", closed,
			fmt.Sprintf("Closed %d sessions open longer than %s", closed, olderThan), err)
	}
}

// NewCloseAbandonedSessionsQueue creates a backlite queue for session sweeps.
func NewCloseAbandonedSessionsQueue(sweeper SessionSweeper, logger MaintenanceLogger) backlite.Queue {
	return backlite.NewQueue(CloseAbandonedSessionsProcessor(sweeper, logger))
}
