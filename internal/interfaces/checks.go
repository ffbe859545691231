package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/earshelf/earshelf/internal/audit"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/devices"
	"github.com/earshelf/earshelf/internal/database/progress"
	"github.com/earshelf/earshelf/internal/database/sessions"
	"github.com/earshelf/earshelf/internal/database/settings"
	"github.com/earshelf/earshelf/internal/http"
	"github.com/earshelf/earshelf/internal/scheduler"
	"github.com/earshelf/earshelf/internal/services"
	"github.com/earshelf/earshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.ProgressStore = (*progress.Repository)(nil)
var _ services.SettingsStore = (*settings.Repository)(nil)
var _ services.SessionRecorder = (*sessions.Repository)(nil)
var _ services.DeviceLister = (*devices.Repository)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ services.Auditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.MaintenanceLogger = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.SessionSweeper = (*sessions.Repository)(nil)
var _ scheduler.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Health Checks
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.Pinger = (*tasks.Client)(nil)
