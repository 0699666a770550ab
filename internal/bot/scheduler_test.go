package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/kbzhubot/internal/bot/tasks"
	"github.com/edgard/kbzhubot/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsEnabledTasksOnly(t *testing.T) {
	t.Parallel()

	var enabled, disabled atomic.Int32
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"enabled":  func(context.Context) error { enabled.Add(1); return nil },
		"disabled": func(context.Context) error { disabled.Add(1); return nil },
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "* * * * * *"},
		"disabled": {Enabled: false, Schedule: "* * * * * *"},
		"unknown":  {Enabled: true, Schedule: "* * * * * *"},
		"invalid":  {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap["invalid"] = func(context.Context) error { return nil }

	s, err := NewScheduler(discardLogger(), cfg, taskMap, time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.Error(t, s.Start())
	require.Len(t, s.scheduler.Jobs(), 1)

	require.Eventually(t, func() bool { return enabled.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	require.Zero(t, disabled.Load())
}

func TestSchedulerWithoutTasks(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.Empty(t, s.scheduler.Jobs())
	require.NoError(t, s.Stop())
}
