package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCallbackHandler returns a handler for the inline menu buttons. The
// menu message is edited in place with the requested view.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", cq.ID)
	}

	msg := cq.Message.Message
	if msg == nil {
		log.InfoContext(ctx, "Callback for inaccessible message", "user_id", cq.From.ID)
		return
	}
	chatID := msg.Chat.ID
	userID := cq.From.ID

	var text string
	switch action := strings.TrimPrefix(cq.Data, callbackPrefix); action {
	case actionProfile:
		text = h.deps.profileReply(ctx, userID)
	case actionNorm:
		text = h.deps.normReply(ctx, userID)
	case actionToday:
		text = h.deps.todayReply(ctx, userID)
	case actionStart:
		// Button presses carry no message of their own, so they always restart.
		prompt, err := h.deps.Diary.Start(ctx, userFrom(&cq.From), 0)
		if err != nil {
			log.ErrorContext(ctx, "Failed to restart onboarding", "error", err, "user_id", userID)
			text = h.deps.errorText(err)
			break
		}
		h.edit(ctx, b, msg, h.deps.Config.Messages.Restart)
		h.deps.send(ctx, b, chatID, prompt.Text, replyMarkup(prompt))
		return
	default:
		log.WarnContext(ctx, "Unknown menu action", "data", cq.Data, "user_id", userID)
		text = h.deps.Config.Messages.UnknownAction
	}
	h.edit(ctx, b, msg, text)
}

func (h callbackHandler) edit(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: menuKeyboard(),
	})
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to edit menu message", "error", err, "chat_id", msg.Chat.ID)
	}
}
