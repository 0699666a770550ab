// Package tasks implements the scheduled tasks of the bot and their registry.
package tasks

import (
	"log/slog"

	"github.com/edgard/kbzhubot/internal/database"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
}
