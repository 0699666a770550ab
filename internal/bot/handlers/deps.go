package handlers

import (
	"log/slog"

	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/metrics"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Diary   *diary.Service
	Metrics *metrics.Metrics
}
