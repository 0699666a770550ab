package handlers

import (
	"context"
	"errors"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/nutrition"
)

func (d HandlerDeps) send(ctx context.Context, b *tgbot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	params := &tgbot.SendMessageParams{ChatID: chatID, Text: text, ParseMode: models.ParseModeHTML}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		d.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// errorText maps a diary error to the configured user message and counts it.
// Persistence failures are counted by the diary itself.
func (d HandlerDeps) errorText(err error) string {
	msgs := d.Config.Messages
	var text, kind string
	switch {
	case errors.Is(err, diary.ErrProfileNotFound):
		text, kind = msgs.StartFirst, "profile_not_found"
	case errors.Is(err, nutrition.ErrMissingData):
		text, kind = msgs.MissingData, "missing_data"
	case errors.Is(err, nutrition.ErrNotRecognized):
		text, kind = msgs.NotRecognized, "not_recognized"
	case errors.Is(err, diary.ErrPhotoNotSupported):
		text, kind = msgs.PhotoUnsupported, "photo"
	case errors.Is(err, diary.ErrPersistence):
		return msgs.GeneralError
	default:
		text, kind = msgs.GeneralError, "internal"
	}
	d.Metrics.ErrorsTotal.WithLabelValues(kind).Inc()
	return text
}

func (d HandlerDeps) profileReply(ctx context.Context, userID int64) string {
	view, err := d.Diary.ProfileSummary(ctx, userID)
	if err != nil {
		d.Logger.WarnContext(ctx, "Failed to load profile", "user_id", userID, "error", err)
		return d.errorText(err)
	}
	return renderProfile(view)
}

func (d HandlerDeps) normReply(ctx context.Context, userID int64) string {
	target, err := d.Diary.CalorieTarget(ctx, userID)
	if err != nil {
		d.Logger.WarnContext(ctx, "Failed to calculate target", "user_id", userID, "error", err)
		if errors.Is(err, diary.ErrProfileNotFound) {
			err = nutrition.ErrMissingData
		}
		return d.errorText(err)
	}
	return renderTarget(target)
}

func (d HandlerDeps) todayReply(ctx context.Context, userID int64) string {
	summary, err := d.Diary.TodaySummary(ctx, userID)
	if err != nil {
		d.Logger.WarnContext(ctx, "Failed to build daily summary", "user_id", userID, "error", err)
		return d.errorText(err)
	}
	return renderSummary(summaryToday, summary)
}

func (d HandlerDeps) aboutReply(_ context.Context, _ int64) string {
	return d.Config.Messages.About
}

func userFrom(u *models.User) diary.User {
	if u == nil {
		return diary.User{}
	}
	return diary.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Login: u.Username}
}
