package tasks

import (
	"context"
	"fmt"
	"time"
)

// maintenanceTimeout bounds a single VACUUM run.
const maintenanceTimeout = 10 * time.Minute

// newSQLMaintenanceTask vacuums the database behind the store.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", SQLMaintenance)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
		defer cancel()

		startTime := time.Now()
		if err := deps.Store.Ping(ctx); err != nil {
			return fmt.Errorf("database unavailable for maintenance: %w", err)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(startTime))
		return nil
	}
}
