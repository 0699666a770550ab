package tasks

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/kbzhubot/internal/database"
)

func newTestDeps(t *testing.T) TaskDeps {
	t.Helper()
	db, err := database.NewDB(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return TaskDeps{Logger: log, Store: database.NewStore(db, log)}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newTestDeps(t))
	require.Len(t, tasks, 1)
	require.Contains(t, tasks, SQLMaintenance)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	task := RegisterAllTasks(newTestDeps(t))[SQLMaintenance]
	require.NoError(t, task(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, task(ctx))
}
