package tasks

import (
	"time"

	"github.com/earshelf/earshelf/internal/config"
)

// Defaults for settings left at zero.
const (
	DefaultWorkers         = 2
	DefaultReleaseAfter    = 15 * time.Minute
	DefaultCleanupInterval = time.Hour

	busyTimeout = 5 * time.Second
)

// withDefaults fills the zero fields of s.
func withDefaults(s config.Tasks) config.Tasks {
	if s.DBPath == "" {
		s.DBPath = config.DefaultTasksDatabasePath
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.ReleaseAfter <= 0 {
		s.ReleaseAfter = DefaultReleaseAfter
	}
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = DefaultCleanupInterval
	}
	return s
}
