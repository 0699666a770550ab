package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBDriver          = "sqlite"
	DefaultDBDSN             = "kbzhu.db"
	DefaultDBMaxOpenConns    = 10
	DefaultDBConnectAttempts = 5

	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisLockTTL = 10 * time.Second

	DefaultHTTPListen      = ":9090"
	DefaultHTTPMetricsPath = "/metrics"
	DefaultWebhookPath     = "/telegram/webhook"

	DefaultAgeInput         = "age"
	DefaultOperationTimeout = 15 * time.Second

	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
)

// DefaultMessages are the Russian texts shipped with the bot.
var DefaultMessages = MessagesConfig{
	Welcome: "Привет, %s! 👋 Я твой личный помощник по здоровому питанию и помогу тебе следить за калориями и вести дневник питания.\n\n" +
		"Просто напиши мне, что ты съел, например «банан» или «гречка 200г», и я посчитаю калории и БЖУ 🍽️\n\n" +
		"Чтобы я помогал тебе ещё лучше, давай настроим твой профиль - это займёт всего несколько секунд! ✨\n\n" +
		"Используй команду /help, чтобы увидеть список доступных команд.",
	HelpHeader:       "<b>Доступные команды:</b>",
	MenuTitle:        "Выберите действие:",
	Restart:          "Давайте начнём заново.",
	GeneralError:     "Произошла ошибка при обработке ваших данных. Пожалуйста, попробуйте еще раз.",
	StartFirst:       "Профиль не найден. Завершите настройку через /start.",
	MissingData:      "Пожалуйста, сначала завершите настройку профиля через /start, чтобы начать вести дневник.",
	NormUnavailable:  "Не удалось рассчитать норму. Проверьте данные через /myprofile.",
	NotRecognized:    "Не удалось распознать продукт 🤔 Попробуйте написать проще, например «яблоко» или «гречка 200г».",
	PhotoUnsupported: "📸 Распознавание еды по фото пока недоступно. Напишите название продукта текстом, например «гречка 200г».",
	ExportEmpty:      "За выбранный период записей нет.",
	ExportUsage:      "Использование: /export [количество дней от 1 до 31]",
	UnknownAction:    "Неизвестное действие. Попробуйте снова.",
	Completed:        "Спасибо! 👍 Ваш профиль успешно настроен:",
	About: "Этот бот помогает считать калории и БЖУ и вести дневник питания.\n" +
		"Напишите, что вы съели, и бот сравнит итог дня с вашей нормой.\n" +
		"Версия: 0.1",
}

// DefaultCommands are registered with Telegram on startup.
var DefaultCommands = []CommandConfig{
	{Command: "start", Description: "Начало работы с ботом и настройка профиля"},
	{Command: "help", Description: "Список команд"},
	{Command: "menu", Description: "Главное меню"},
	{Command: "myprofile", Description: "Мой профиль"},
	{Command: "mynorm", Description: "Моя дневная норма КБЖУ"},
	{Command: "today", Description: "Итоги за сегодня"},
	{Command: "export", Description: "Выгрузить дневник в Excel"},
	{Command: "about", Description: "Информация о боте"},
}

// setDefaults registers every key so environment variables can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.webhook.enabled", false)
	v.SetDefault("telegram.webhook.url", "")
	v.SetDefault("telegram.webhook.path", DefaultWebhookPath)
	v.SetDefault("telegram.webhook.secret", "")

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.dsn", DefaultDBDSN)
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.connect_attempts", DefaultDBConnectAttempts)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", DefaultRedisLockTTL)

	v.SetDefault("http.listen", DefaultHTTPListen)
	v.SetDefault("http.metrics_path", DefaultHTTPMetricsPath)

	v.SetDefault("diary.timezone", "")
	v.SetDefault("diary.age_input", DefaultAgeInput)
	v.SetDefault("diary.operation_timeout", DefaultOperationTimeout)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", false)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultSQLMaintenanceSchedule)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help_header", DefaultMessages.HelpHeader)
	v.SetDefault("messages.menu_title", DefaultMessages.MenuTitle)
	v.SetDefault("messages.restart", DefaultMessages.Restart)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.start_first", DefaultMessages.StartFirst)
	v.SetDefault("messages.missing_data", DefaultMessages.MissingData)
	v.SetDefault("messages.norm_unavailable", DefaultMessages.NormUnavailable)
	v.SetDefault("messages.not_recognized", DefaultMessages.NotRecognized)
	v.SetDefault("messages.photo_unsupported", DefaultMessages.PhotoUnsupported)
	v.SetDefault("messages.export_empty", DefaultMessages.ExportEmpty)
	v.SetDefault("messages.export_usage", DefaultMessages.ExportUsage)
	v.SetDefault("messages.unknown_action", DefaultMessages.UnknownAction)
	v.SetDefault("messages.completed", DefaultMessages.Completed)
	v.SetDefault("messages.about", DefaultMessages.About)

	v.SetDefault("commands", DefaultCommands)
}
