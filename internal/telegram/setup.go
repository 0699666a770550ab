// Package telegram constructs the go-telegram/bot client and registers the
// bot's handlers and command list with it.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/kbzhubot/internal/bot/handlers"
	"github.com/edgard/kbzhubot/internal/config"
)

// NewTelegramBot creates a new Telegram bot instance.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created")
	return b, nil
}

// applyMiddleware wraps handler so that the first middleware is outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers the handlers with b, applying each handler's
// own middleware.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	count := 0
	for name, h := range registered {
		if h.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, applyMiddleware(h.Handler, h.Middleware))
		log.Debug("Registered handler", "name", name, "pattern", h.Pattern, "match_type", h.MatchType, "middleware_count", len(h.Middleware))
		count++
	}

	log.Info("Registered Telegram handlers", "count", count)
	return nil
}

// BotCommands converts configured commands into the Telegram menu list.
func BotCommands(cmds []config.CommandConfig) []models.BotCommand {
	out := make([]models.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, models.BotCommand{Command: c.Command, Description: c.Description})
	}
	return out
}

// SetCommands publishes the command list shown in the Telegram client menu.
func SetCommands(ctx context.Context, b *bot.Bot, cmds []config.CommandConfig) error {
	if len(cmds) == 0 {
		return nil
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: BotCommands(cmds)}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}
