// Package bot implements the lifecycle of the running bot: Telegram update
// delivery, the task scheduler and the HTTP server for metrics, health and
// webhooks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	tgBot     *tgbot.Bot
	scheduler *Scheduler
	metrics   *metrics.Metrics
	health    Pinger
}

// NewBot creates the orchestrator.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
	m *metrics.Metrics,
	health Pinger,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		tgBot:     tgBot,
		scheduler: scheduler,
		metrics:   m,
		health:    health,
	}
}

// Run starts update delivery, the scheduler and the HTTP server, and blocks
// until ctx is cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.runTelegram(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		return b.runHTTP(gCtx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

func (b *Bot) runTelegram(ctx context.Context) error {
	wh := b.cfg.Telegram.Webhook
	if wh.Enabled {
		_, err := b.tgBot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: wh.URL, SecretToken: wh.Secret})
		if err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		b.logger.Info("Receiving updates via webhook", "url", wh.URL)
		b.tgBot.StartWebhook(ctx)
	} else {
		if _, err := b.tgBot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
			b.logger.Warn("Failed to delete webhook before polling", "error", err)
		}
		b.logger.Info("Receiving updates via long polling")
		b.tgBot.Start(ctx)
	}

	if ctx.Err() == nil {
		return errors.New("telegram listener stopped unexpectedly")
	}
	b.logger.Info("Telegram listener stopped.")
	return nil
}

func (b *Bot) runHTTP(ctx context.Context) error {
	var webhook http.Handler
	if b.cfg.Telegram.Webhook.Enabled {
		webhook = b.tgBot.WebhookHandler()
	}
	srv := &http.Server{
		Addr:              b.cfg.HTTP.Listen,
		Handler:           NewHTTPHandler(b.cfg, b.metrics, b.health, webhook),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		b.logger.Error("Error shutting down HTTP server", "error", err)
	}
	return nil
}

// NewHTTPHandler serves metrics, a health check and, when webhook is not
// nil, Telegram webhook deliveries.
func NewHTTPHandler(cfg *config.Config, m *metrics.Metrics, health Pinger, webhook http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.HTTP.MetricsPath, m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if health != nil {
			if err := health.Ping(ctx); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	if webhook != nil {
		mux.Handle(cfg.Telegram.Webhook.Path, webhook)
	}
	return mux
}
