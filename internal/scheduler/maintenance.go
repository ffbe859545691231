package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/tasks"
)

// TaskQueue accepts background tasks.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
}

// Job is one periodic maintenance task.
type Job struct {
	Name     string
	Schedule string // Cron format
	Task     func() backlite.Task
}

// MaintenanceJobs returns the periodic jobs built from application settings.
func MaintenanceJobs(cfg *config.Config) []Job {
	return []Job{
		{
			Name:     "close_abandoned_sessions",
			Schedule: cfg.Sessions.SweepSchedule,
			Task: func() backlite.Task {
				return tasks.CloseAbandonedSessionsTask{AbandonAfterSeconds: int64(cfg.Sessions.AbandonAfter / time.Second)}
			},
		},
		{
			Name:     "cleanup_audit_events",
			Schedule: cfg.Audit.CleanupSchedule,
			Task: func() backlite.Task {
				return tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}
			},
		},
	}
}

// MaintenanceScheduler enqueues maintenance tasks on cron schedules. The
// work itself runs on the task queue's workers.
type MaintenanceScheduler struct {
	queue TaskQueue
	jobs  []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(queue TaskQueue, jobs ...Job) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(newParser())),
		entries: make(map[string]cron.EntryID),
	}
}

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := newParser().Parse(schedule)
	return err
}

// Start registers every job and starts the cron loop. Jobs with an empty
// schedule are skipped.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if job.Schedule == "" {
			log.Printf("[SCHEDULER] %s: no schedule, skipping", job.Name)
			continue
		}
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}

		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, entry := range s.cron.Entries() {
		log.Printf("[SCHEDULER] Next run of entry %d: %v", entry.ID, entry.Next)
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[SCHEDULER] Stopped")
}

// RunNow enqueues the named job immediately and returns the task id.
func (s *MaintenanceScheduler) RunNow(name string) (string, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.enqueue(job)
		}
	}
	return "", fmt.Errorf("unknown maintenance job %q", name)
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the named job will next run
func (s *MaintenanceScheduler) GetNextRunTime(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func (s *MaintenanceScheduler) enqueue(job Job) (string, error) {
	id, err := s.queue.Enqueue(job.Task())
	if err != nil {
		log.Printf("[SCHEDULER] Failed to enqueue %s: %v", job.Name, err)
		return "", err
	}
	log.Printf("[SCHEDULER] Enqueued %s (task %s)", job.Name, id)
	return id, nil
}
