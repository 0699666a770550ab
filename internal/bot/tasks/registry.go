package tasks

import (
	"context"
)

// Task names as used under scheduler.tasks in the configuration.
const (
	SQLMaintenance = "sql_maintenance"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// respect ctx cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the task registry keyed by configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance: newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
