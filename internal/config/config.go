// Package config provides configuration loading, validation, and management
// for the bot. Values come from defaults, an optional YAML file, an optional
// .env file and BOT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfiguration wraps every loading and validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Diary     DiaryConfig     `mapstructure:"diary"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Commands  []CommandConfig `mapstructure:"commands" validate:"dive"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and update delivery mode.
type TelegramConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig enables webhook delivery instead of long polling. The
// webhook handler is served by the HTTP server.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"     validate:"required_if=Enabled true,omitempty,url"`
	Path    string `mapstructure:"path"    validate:"required_if=Enabled true,omitempty,startswith=/"`
	Secret  string `mapstructure:"secret"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"         validate:"oneof=sqlite postgres"`
	DSN          string `mapstructure:"dsn"            validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"min=0"`

	// ConnectAttempts bounds startup connection retries.
	ConnectAttempts uint `mapstructure:"connect_attempts" validate:"min=1"`
}

// RedisConfig enables the distributed per-user lock.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"     validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"       validate:"min=0"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" validate:"min=1s"`
}

// HTTPConfig configures the metrics and webhook server.
type HTTPConfig struct {
	Listen      string `mapstructure:"listen"       validate:"required"`
	MetricsPath string `mapstructure:"metrics_path" validate:"startswith=/"`
}

// DiaryConfig tunes the diary core.
type DiaryConfig struct {
	// Timezone is an IANA name; empty uses the server's local zone.
	Timezone string `mapstructure:"timezone"  validate:"omitempty,timezone"`
	AgeInput string `mapstructure:"age_input" validate:"oneof=age birthdate any"`

	// OperationTimeout bounds the handling of one update.
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"min=1s"`
}

// Location resolves Timezone.
func (d DiaryConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedule is a cron expression
// with a leading seconds field.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// CommandConfig is a bot command advertised to Telegram.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required"`
	Description string `mapstructure:"description" validate:"required"`
}

// MessagesConfig holds user-facing texts. Welcome is a format string taking
// the user's first name.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	HelpHeader       string `mapstructure:"help_header"       validate:"required"`
	MenuTitle        string `mapstructure:"menu_title"        validate:"required"`
	Restart          string `mapstructure:"restart"           validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`
	StartFirst       string `mapstructure:"start_first"       validate:"required"`
	MissingData      string `mapstructure:"missing_data"      validate:"required"`
	NormUnavailable  string `mapstructure:"norm_unavailable"  validate:"required"`
	NotRecognized    string `mapstructure:"not_recognized"    validate:"required"`
	PhotoUnsupported string `mapstructure:"photo_unsupported" validate:"required"`
	ExportEmpty      string `mapstructure:"export_empty"      validate:"required"`
	ExportUsage      string `mapstructure:"export_usage"      validate:"required"`
	UnknownAction    string `mapstructure:"unknown_action"    validate:"required"`
	Completed        string `mapstructure:"completed"         validate:"required"`
	About            string `mapstructure:"about"             validate:"required"`
}
