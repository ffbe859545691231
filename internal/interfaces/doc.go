// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ProgressStore: merge position reports and compute resume points (internal/services/interfaces.go)
//   - SettingsStore: per-user book settings (internal/services/interfaces.go)
//   - SessionRecorder: open and close playback sessions (internal/services/interfaces.go)
//   - DeviceLister: devices a user listens on (internal/services/interfaces.go)
//
// ## Audit Interfaces
//
//   - Auditor: record sync, settings and session events (internal/services/interfaces.go)
//   - MaintenanceLogger: record maintenance runs (internal/tasks/maintenance.go)
//
// ## Background Work Interfaces
//
//   - TaskQueue: accept tasks from the scheduler (internal/scheduler/maintenance.go)
//   - SessionSweeper: close abandoned sessions (internal/tasks/close_sessions.go)
//   - AuditEventCleaner: delete expired audit events (internal/tasks/cleanup_audit.go)
//
// ## Operational Interfaces
//
//   - Pinger: dependency health for GET /health (internal/http/health.go)
//
// # Adding a New Maintenance Job
//
// Define the task and its queue in internal/tasks/:
//
//	type RescanLibrariesTask struct{}
//
//	func (t RescanLibrariesTask) Config() backlite.QueueConfig {
//		return backlite.QueueConfig{Name: "rescan_libraries", MaxAttempts: 1}
//	}
//
// Register the queue in entrypoint.go, then add a Job to
// scheduler.MaintenanceJobs with its cron schedule.
//
// # Adding a New Database Domain
//
// Create a sub-package such as internal/database/bookmarks/ with a
// repository:
//
//	type Repository struct{ db *gorm.DB }
//
//	func NewRepository(db *gorm.DB) *Repository
//
// Run writes through database.WithTx and classify errors with
// database.Classify so callers can match ErrNotFound and ErrConflict.
// Finish with a compile-time check:
//
//	var _ BookmarkStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
