package tasks

import (
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// MaintenanceLogger records the outcome of a maintenance run.
type MaintenanceLogger interface {
	LogMaintenance(action, description string, affected int64, err error)
}

// Finished maintenance tasks stay visible for a week. Payloads are only
// kept for failures.
var maintenanceRetention = &backlite.Retention{
	Duration: 7 * 24 * time.Hour,
	Data:     &backlite.RetainData{OnlyFailed: true},
}

// finish records one maintenance run in the audit log and the process log.
// The audit entry is written after the work so a cleanup never removes it.
func finish(logger MaintenanceLogger, action string, affected int64, summary string, err error) error {
	if err != nil {
		err = fmt.Errorf("%s: %w", action, err)
	}
	if logger != nil {
		logger.LogMaintenance(action, summary, affected, err)
	}
	if err != nil {
		return err
	}
	if affected > 0 {
		log.Printf("[TASK] %s", summary)
	}
	return nil
}
