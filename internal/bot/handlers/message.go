package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/onboarding"
)

// messageHandler routes free-form messages: answers while a questionnaire
// step is pending, food entries otherwise.
type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	m := update.Message
	if m == nil || m.From == nil {
		return
	}
	chatID := m.Chat.ID
	userID := m.From.ID

	if strings.HasPrefix(m.Text, "/") {
		h.deps.send(ctx, b, chatID, h.deps.Config.Messages.UnknownAction, nil)
		return
	}

	state, err := h.deps.Diary.State(ctx, userID)
	if err != nil {
		if !errors.Is(err, diary.ErrProfileNotFound) {
			log.ErrorContext(ctx, "Failed to load state", "error", err, "user_id", userID)
		}
		h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		return
	}

	if state.Active() {
		h.answer(ctx, b, chatID, userID, int64(m.ID), m.Text)
		return
	}
	h.food(ctx, b, chatID, userID, m)
}

func (h messageHandler) answer(ctx context.Context, b *bot.Bot, chatID, userID, messageID int64, text string) {
	log := h.deps.Logger.With("handler", "message")

	res, err := h.deps.Diary.HandleOnboardingAnswer(ctx, userID, messageID, text)
	if err != nil {
		var verr *onboarding.ValidationError
		switch {
		case errors.As(err, &verr):
			h.deps.send(ctx, b, chatID, verr.Prompt.Text, replyMarkup(verr.Prompt))
		case errors.Is(err, database.ErrStateConflict), errors.Is(err, diary.ErrNotOnboarding):
			// Another instance advanced the questionnaire first.
			log.InfoContext(ctx, "Ignoring stale onboarding answer", "user_id", userID, "error", err)
		default:
			log.ErrorContext(ctx, "Failed to handle onboarding answer", "error", err, "user_id", userID)
			h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		}
		return
	}
	if res.Duplicate {
		return
	}

	if !res.Completed {
		h.deps.send(ctx, b, chatID, res.Prompt.Text, replyMarkup(res.Prompt))
		return
	}

	removeKeyboard := replyMarkup(onboarding.Prompt{RemoveKeyboard: true})
	if res.Profile != nil {
		h.deps.send(ctx, b, chatID, h.deps.Config.Messages.Completed+"\n\n"+renderProfileFields(*res.Profile), removeKeyboard)
	}
	if res.Target == nil {
		log.WarnContext(ctx, "Target unavailable after onboarding", "user_id", userID, "error", res.TargetErr)
		h.deps.send(ctx, b, chatID, h.deps.Config.Messages.NormUnavailable, removeKeyboard)
		return
	}
	h.deps.send(ctx, b, chatID, renderTarget(*res.Target), nil)
}

func (h messageHandler) food(ctx context.Context, b *bot.Bot, chatID, userID int64, m *models.Message) {
	in := diary.FoodInput{MessageID: int64(m.ID), Text: m.Text}
	if len(m.Photo) > 0 {
		in.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
	}

	res, err := h.deps.Diary.HandleFoodMessage(ctx, userID, in)
	if err != nil {
		if errors.Is(err, diary.ErrPersistence) {
			h.deps.Logger.ErrorContext(ctx, "Failed to log meal", "error", err, "user_id", userID)
		}
		h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		return
	}
	if res.Duplicate {
		return
	}

	text := renderFoodAdded(res.Item)
	if !res.Summary.Day.IsZero() {
		text += "\n\n" + renderSummary(summaryAdded, res.Summary)
	}
	h.deps.send(ctx, b, chatID, text, nil)
}
