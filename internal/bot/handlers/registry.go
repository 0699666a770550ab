package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is a handler together with its match rule and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the command and callback handlers keyed by name.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	command := func(name string, h tgbot.HandlerFunc) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  deps.middleware(name),
		}
	}

	return map[string]RegisteredHandler{
		"/start":     command("start", NewStartHandler(deps)),
		"/help":      command("help", NewHelpHandler(deps)),
		"/menu":      command("menu", NewMenuHandler(deps)),
		"/myprofile": command("myprofile", NewProfileHandler(deps)),
		"/mynorm":    command("mynorm", NewNormHandler(deps)),
		"/today":     command("today", NewTodayHandler(deps)),
		"/export":    command("export", NewExportHandler(deps)),
		"/about":     command("about", NewAboutHandler(deps)),
		"menu": {
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     callbackPrefix,
			Handler:     NewCallbackHandler(deps),
			MatchType:   tgbot.MatchTypePrefix,
			Middleware:  deps.middleware("callback"),
		},
	}
}

// NewDefaultHandler handles every update no registered handler matched:
// onboarding answers, food messages and photos.
func NewDefaultHandler(deps HandlerDeps) tgbot.HandlerFunc {
	var h tgbot.HandlerFunc = messageHandler{deps}.Handle
	mw := deps.middleware("message")
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func (d HandlerDeps) middleware(name string) []tgbot.Middleware {
	return []tgbot.Middleware{
		Instrument(d.Metrics, name),
		Timeout(d.Config.Diary.OperationTimeout),
	}
}
