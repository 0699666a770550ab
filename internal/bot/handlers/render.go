package handlers

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/nutrition"
	"github.com/edgard/kbzhubot/internal/onboarding"
)

// Replies are sent with HTML parse mode; user-controlled text is escaped.

const (
	notSetMasculine = "Не указан"
	notSetFeminine  = "Не указана"

	summaryToday = "Сводка за сегодня"
	summaryAdded = "Итого за сегодня"
)

const (
	callbackPrefix = "menu:"

	actionProfile = "profile"
	actionNorm    = "norm"
	actionToday   = "today"
	actionStart   = "start"
)

func renderHelp(header string, cmds []config.CommandConfig) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, c := range cmds {
		fmt.Fprintf(&sb, "\n/%s - %s", c.Command, html.EscapeString(c.Description))
	}
	return sb.String()
}

func renderWelcome(format, firstName string) string {
	if firstName == "" {
		firstName = "друг"
	}
	return fmt.Sprintf(format, html.EscapeString(firstName))
}

// renderProfileFields lists the profile answers, one per line.
func renderProfileFields(v diary.ProfileView) string {
	label := func(s, notSet string) string {
		if s == "" {
			return notSet
		}
		return s
	}
	age := notSetMasculine
	if v.Age != nil {
		age = fmt.Sprintf("%d лет", *v.Age)
	}
	height := notSetMasculine
	if v.HeightCm != nil {
		height = fmt.Sprintf("%d см", *v.HeightCm)
	}
	weight := notSetMasculine
	if v.WeightKg != nil {
		weight = strconv.FormatFloat(*v.WeightKg, 'f', -1, 64) + " кг"
	}

	lines := []string{
		"🎯 <b>Цель:</b> " + label(v.Goal.Label(), notSetFeminine),
		"👤 <b>Пол:</b> " + label(v.Gender.Label(), notSetMasculine),
		"📅 <b>Возраст:</b> " + age,
		"🏃 <b>Активность:</b> " + label(v.ActivityLevel.Label(), notSetFeminine),
		"📏 <b>Рост:</b> " + height,
		"⚖️ <b>Вес:</b> " + weight,
	}
	return strings.Join(lines, "\n")
}

func renderProfile(v diary.ProfileView) string {
	return "📋 <b>Ваш профиль:</b>\n\n" + renderProfileFields(v)
}

func renderTarget(t diary.TargetView) string {
	goal := t.Goal.Label()
	if goal == "" {
		goal = notSetFeminine
	}
	return fmt.Sprintf(
		"✅ <b>Ваша текущая цель:</b> %s\n\n"+
			"📊 <b>Дневная норма:</b> ~%d ккал\n\n"+
			"🍽 <b>Б|Ж|У:</b>\n"+
			" 🍗 <b>Белки:</b> ~%dг\n"+
			" 🥑 <b>Жиры:</b> ~%dг\n"+
			" 🍞 <b>Углеводы:</b> ~%dг",
		goal, t.Target.Calories, t.Target.ProteinG, t.Target.FatG, t.Target.CarbsG,
	)
}

func renderSummary(title string, s diary.DaySummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s:</b>\n", title)

	tot := s.Totals
	if s.Target == nil {
		fmt.Fprintf(&sb,
			"Калории: <b>%d</b> ккал\nБелки: <b>%.1f</b> г\nЖиры: <b>%.1f</b> г\nУглеводы: <b>%.1f</b> г",
			tot.Calories, tot.ProteinG, tot.FatG, tot.CarbsG)
		sb.WriteString("\n<i>(Не удалось получить норму для сравнения)</i>")
		return sb.String()
	}

	tgt := s.Target
	fmt.Fprintf(&sb,
		"Калории: <b>%d</b> / %d ккал\nБелки: <b>%.1f</b> / %d г\nЖиры: <b>%.1f</b> / %d г\nУглеводы: <b>%.1f</b> / %d г",
		tot.Calories, tgt.Calories, tot.ProteinG, tgt.ProteinG, tot.FatG, tgt.FatG, tot.CarbsG, tgt.CarbsG)

	switch s.Comparison.Flag {
	case nutrition.FlagExceeded:
		fmt.Fprintf(&sb, "\n\n⚠️ <b>Превышение нормы калорий на %d ккал!</b>", s.Comparison.ExceededBy)
	case nutrition.FlagNearLimit:
		sb.WriteString("\n\n👀 <b>Норма калорий почти достигнута.</b>")
	}
	return sb.String()
}

func renderFoodAdded(item nutrition.FoodItem) string {
	return fmt.Sprintf("✅ Добавлено: %s (~%d ккал, БЖУ: %.1f/%.1f/%.1f)",
		html.EscapeString(item.Name), item.Calories, item.ProteinG, item.FatG, item.CarbsG)
}

// replyMarkup converts a prompt keyboard. It returns nil when the prompt
// leaves the current keyboard alone.
func replyMarkup(p onboarding.Prompt) models.ReplyMarkup {
	if len(p.Keyboard) > 0 {
		rows := make([][]models.KeyboardButton, 0, len(p.Keyboard))
		for _, labels := range p.Keyboard {
			row := make([]models.KeyboardButton, 0, len(labels))
			for _, l := range labels {
				row = append(row, models.KeyboardButton{Text: l})
			}
			rows = append(rows, row)
		}
		return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: true}
	}
	if p.RemoveKeyboard {
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}

func menuKeyboard() *models.InlineKeyboardMarkup {
	button := func(text, action string) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{Text: text, CallbackData: callbackPrefix + action}
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
		{button("⚙️ Мой профиль", actionProfile), button("🎯 Моя норма", actionNorm)},
		{button("📊 Сводка за сегодня", actionToday)},
		{button("🔄 Начать заново", actionStart)},
	}}
}
