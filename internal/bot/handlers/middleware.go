// Package handlers contains the Telegram command, callback and message
// handlers of the bot, along with their registration and middleware.
package handlers

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgard/kbzhubot/internal/logger"
	"github.com/edgard/kbzhubot/internal/metrics"
)

// CountUpdates counts every incoming update by type.
func CountUpdates(m *metrics.Metrics) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			m.UpdatesTotal.WithLabelValues(logger.UpdateType(update)).Inc()
			next(ctx, b, update)
		}
	}
}

// Recover logs a panicking handler instead of crashing the update loop.
func Recover(log *slog.Logger) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "Handler panicked", "panic", r, "update_id", update.ID, "stack", string(debug.Stack()))
				}
			}()
			next(ctx, b, update)
		}
	}
}

// Instrument records the handling time under the handler label.
func Instrument(m *metrics.Metrics, handler string) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			timer := prometheus.NewTimer(m.UpdateDuration.WithLabelValues(handler))
			defer timer.ObserveDuration()
			next(ctx, b, update)
		}
	}
}

// Timeout bounds each update with d. Zero disables the limit.
func Timeout(d time.Duration) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			next(ctx, b, update)
		}
	}
}
