package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/kbzhubot/internal/export"
)

const maxExportDays = 31

// NewExportHandler returns a handler for /export [days]. It sends the meal
// log of the last days calendar days as an Excel document.
func NewExportHandler(deps HandlerDeps) bot.HandlerFunc {
	return exportHandler{deps}.Handle
}

type exportHandler struct {
	deps HandlerDeps
}

func (h exportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "export")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Export handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	days, ok := parseExportDays(update.Message.Text)
	if !ok {
		h.deps.send(ctx, b, chatID, h.deps.Config.Messages.ExportUsage, nil)
		return
	}

	entries, from, to, err := h.deps.Diary.MealsForDays(ctx, userID, days)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load meals for export", "error", err, "user_id", userID)
		h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		return
	}
	if len(entries) == 0 {
		h.deps.send(ctx, b, chatID, h.deps.Config.Messages.ExportEmpty, nil)
		return
	}

	data, err := export.Workbook(entries, from, to)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build export workbook", "error", err, "user_id", userID)
		h.deps.send(ctx, b, chatID, h.deps.errorText(err), nil)
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionUploadDocument}); err != nil {
		log.DebugContext(ctx, "Failed to send chat action", "error", err, "chat_id", chatID)
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: export.Filename(from, to), Data: bytes.NewReader(data)},
		Caption:  fmt.Sprintf("Дневник питания: %d записей", len(entries)),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send export document", "error", err, "chat_id", chatID)
		return
	}
	log.InfoContext(ctx, "Export sent", "user_id", userID, "days", days, "entries", len(entries))
}

// parseExportDays reads the optional day count after the command.
func parseExportDays(text string) (int, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 1, true
	}
	if len(fields) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > maxExportDays {
		return 0, false
	}
	return n, true
}
