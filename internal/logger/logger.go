// Package logger provides structured logging for the bot.
// It uses Go's slog package with configurable levels and formats, and a
// Telegram middleware that tags every update with a trace ID.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

type traceKey struct{}

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID returns ctx carrying id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the trace ID stored in ctx, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// Middleware creates a logging middleware for the Telegram bot.
// It assigns a trace ID and logs the start and duration of each update.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			traceID := uuid.NewString()
			ctx = WithTraceID(ctx, traceID)

			logEntry := log.With(
				"trace_id", traceID,
				"update_id", update.ID,
				"update_type", UpdateType(update),
			)

			switch {
			case update.Message != nil:
				var userID int64
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
				logEntry = logEntry.With(
					"message_id", update.Message.ID,
					"chat_id", update.Message.Chat.ID,
					"user_id", userID,
					"text_preview", truncateString(update.Message.Text, 50),
				)
			case update.CallbackQuery != nil:
				logEntry = logEntry.With(
					"callback_query_id", update.CallbackQuery.ID,
					"user_id", update.CallbackQuery.From.ID,
					"data", update.CallbackQuery.Data,
				)
				if msg := update.CallbackQuery.Message.Message; msg != nil {
					logEntry = logEntry.With("chat_id", msg.Chat.ID, "message_accessible", true)
				} else if msg := update.CallbackQuery.Message.InaccessibleMessage; msg != nil {
					logEntry = logEntry.With("chat_id", msg.Chat.ID, "message_accessible", false)
				}
			}

			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// UpdateType classifies an update for logs and metrics.
func UpdateType(update *models.Update) string {
	switch {
	case update.Message != nil && len(update.Message.Photo) > 0:
		return "photo"
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	default:
		return "other"
	}
}

// truncateString shortens s to at most maxLen runes.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
