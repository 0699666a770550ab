package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/kbzhubot/internal/bot/tasks"
	"github.com/edgard/kbzhubot/internal/config"
)

// Scheduler runs the configured tasks on their cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler evaluating cron expressions in loc.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc, loc *time.Location) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start registers every enabled task and starts ticking. Tasks that are
// unknown or fail to parse are skipped with a warning.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	scheduled := 0
	if s.cfg != nil {
		for name, taskCfg := range s.cfg.Tasks {
			if s.schedule(name, taskCfg) {
				scheduled++
			}
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) schedule(name string, taskCfg config.TaskConfig) bool {
	if !taskCfg.Enabled {
		s.logger.Info("Skipping disabled task", "task_name", name)
		return false
	}
	taskFunc, ok := s.taskMap[name]
	if !ok {
		s.logger.Warn("Configured task not found in registry, skipping", "task_name", name)
		return false
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(taskCfg.Schedule, true),
		gocron.NewTask(
			func(ctx context.Context, name string) {
				s.logger.Info("Running scheduled task", "task_name", name)
				startTime := time.Now()
				if err := taskFunc(ctx); err != nil {
					s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
				}
				s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
			},
			context.Background(),
			name,
		),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
		return false
	}

	s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
	return true
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("Scheduler stopped")
	return nil
}
