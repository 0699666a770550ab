// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/kbzhubot/internal/bot"
	"github.com/edgard/kbzhubot/internal/bot/handlers"
	"github.com/edgard/kbzhubot/internal/bot/tasks"
	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/locker"
	"github.com/edgard/kbzhubot/internal/logger"
	"github.com/edgard/kbzhubot/internal/metrics"
	"github.com/edgard/kbzhubot/internal/onboarding"
	"github.com/edgard/kbzhubot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires all components, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	loc, err := cfg.Diary.Location()
	if err != nil {
		log.Error("Invalid diary timezone", "error", err)
		return 1
	}

	db, err := database.Connect(ctx, database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, cfg.Database.ConnectAttempts)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var userLocker locker.Locker = locker.NewLocal()
	if cfg.Redis.Enabled {
		rdb, err := locker.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			return 1
		}
		defer func() { _ = rdb.Close() }()
		userLocker = locker.NewRedis(rdb, locker.RedisOptions{Prefix: "kbzhu:lock:", TTL: cfg.Redis.LockTTL}, log)
		log.Info("Using redis per-user lock", "addr", cfg.Redis.Addr)
	}

	m := metrics.New()
	svc := diary.NewService(diary.Deps{
		Store:      store,
		Locker:     userLocker,
		Metrics:    m,
		Logger:     log,
		Location:   loc,
		Onboarding: onboarding.Options{AgeMode: onboarding.AgeMode(cfg.Diary.AgeInput)},
	})

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Diary:   svc,
		Metrics: m,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(handlers.CountUpdates(m), logger.Middleware(log), handlers.Recover(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}
	if cfg.Telegram.Webhook.Enabled && cfg.Telegram.Webhook.Secret != "" {
		botOpts = append(botOpts, tgbot.WithWebhookSecretToken(cfg.Telegram.Webhook.Secret))
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, cfg.Commands); err != nil {
		log.Warn("Failed to publish bot commands", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), loc)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, tg, sched, m, store)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
