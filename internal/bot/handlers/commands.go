package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. It (re)starts
// the questionnaire and asks the first question.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	user := userFrom(update.Message.From)

	prompt, err := h.deps.Diary.Start(ctx, user, int64(update.Message.ID))
	if err != nil {
		log.ErrorContext(ctx, "Failed to start onboarding", "error", err, "user_id", user.ID)
		h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		return
	}
	if prompt.Empty() {
		// Redelivered /start, already answered.
		return
	}

	h.deps.send(ctx, b, chatID, renderWelcome(h.deps.Config.Messages.Welcome, user.FirstName), nil)
	h.deps.send(ctx, b, chatID, prompt.Text, replyMarkup(prompt))
}

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.deps.send(ctx, b, update.Message.Chat.ID, renderHelp(h.deps.Config.Messages.HelpHeader, h.deps.Config.Commands), nil)
}

// NewMenuHandler returns a handler for the /menu command.
func NewMenuHandler(deps HandlerDeps) bot.HandlerFunc {
	return menuHandler{deps}.Handle
}

type menuHandler struct {
	deps HandlerDeps
}

func (h menuHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.deps.send(ctx, b, update.Message.Chat.ID, h.deps.Config.Messages.MenuTitle, menuKeyboard())
}

// queryHandler answers a read-only command with the text built by reply.
type queryHandler struct {
	deps  HandlerDeps
	name  string
	reply func(d HandlerDeps, ctx context.Context, userID int64) string
}

func (h queryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		h.deps.Logger.WarnContext(ctx, "Handler received update with nil message or sender", "handler", h.name, "update_id", update.ID)
		return
	}
	h.deps.send(ctx, b, update.Message.Chat.ID, h.reply(h.deps, ctx, update.Message.From.ID), nil)
}

// NewProfileHandler returns a handler for /myprofile.
func NewProfileHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "myprofile", reply: HandlerDeps.profileReply}.Handle
}

// NewNormHandler returns a handler for /mynorm.
func NewNormHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "mynorm", reply: HandlerDeps.normReply}.Handle
}

// NewAboutHandler returns a handler for /about.
func NewAboutHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "about", reply: HandlerDeps.aboutReply}.Handle
}

// NewTodayHandler returns a handler for /today.
func NewTodayHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps: deps, name: "today", reply: HandlerDeps.todayReply}.Handle
}
