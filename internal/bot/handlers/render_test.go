package handlers

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/nutrition"
	"github.com/edgard/kbzhubot/internal/onboarding"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	target := &nutrition.Target{Calories: 2000, ProteinG: 100, FatG: 60, CarbsG: 250}
	totals := nutrition.Totals{Calories: 1850, ProteinG: 90.25, FatG: 40, CarbsG: 200.5}

	near := renderSummary(summaryToday, diary.DaySummary{Totals: totals, Target: target, Comparison: nutrition.Compare(totals, target)})
	require.Contains(t, near, "Калории: <b>1850</b> / 2000 ккал")
	require.Contains(t, near, "Белки: <b>90.2</b> / 100 г")
	require.Contains(t, near, "Норма калорий почти достигнута")

	over := nutrition.Totals{Calories: 2150}
	exceeded := renderSummary(summaryToday, diary.DaySummary{Totals: over, Target: target, Comparison: nutrition.Compare(over, target)})
	require.Contains(t, exceeded, "Превышение нормы калорий на 150 ккал!")

	none := renderSummary(summaryToday, diary.DaySummary{Totals: totals, Comparison: nutrition.Compare(totals, nil)})
	require.Contains(t, none, "Калории: <b>1850</b> ккал")
	require.Contains(t, none, "Не удалось получить норму для сравнения")
	require.NotContains(t, none, "Превышение")
}

func TestRenderFoodAddedEscapesName(t *testing.T) {
	t.Parallel()

	got := renderFoodAdded(nutrition.FoodItem{Name: "Сыр <Косичка>", Calories: 90, ProteinG: 5, FatG: 7.25, CarbsG: 0})
	require.Equal(t, "✅ Добавлено: Сыр &lt;Косичка&gt; (~90 ккал, БЖУ: 5.0/7.2/0.0)", got)
}

func TestRenderWelcome(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Привет, A&amp;B!", renderWelcome("Привет, %s!", "A&B"))
	require.Equal(t, "Привет, друг!", renderWelcome("Привет, %s!", ""))
}

func TestRenderTargetAndProfile(t *testing.T) {
	t.Parallel()

	got := renderTarget(diary.TargetView{Goal: nutrition.GoalGainMuscle, Target: nutrition.Target{Calories: 2500, ProteinG: 126, FatG: 70, CarbsG: 300}})
	require.Contains(t, got, "Нарастить мышцы")
	require.Contains(t, got, "~2500 ккал")
	require.Contains(t, got, "~300г")

	weight := 68.5
	profile := renderProfile(diary.ProfileView{WeightKg: &weight})
	require.Contains(t, profile, "⚖️ <b>Вес:</b> 68.5 кг")
	require.Contains(t, profile, "🎯 <b>Цель:</b> Не указана")
	require.Contains(t, profile, "📏 <b>Рост:</b> Не указан")
}

func TestReplyMarkup(t *testing.T) {
	t.Parallel()

	require.Nil(t, replyMarkup(onboarding.Prompt{Text: "x"}))

	remove, ok := replyMarkup(onboarding.Prompt{RemoveKeyboard: true}).(*models.ReplyKeyboardRemove)
	require.True(t, ok)
	require.True(t, remove.RemoveKeyboard)

	kb, ok := replyMarkup(onboarding.PromptFor(onboarding.StateAwaitingActivity, onboarding.Options{})).(*models.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard, 2)
	require.Equal(t, "Высокая активность", kb.Keyboard[0][0].Text)
	require.Equal(t, "Сидячий образ жизни", kb.Keyboard[1][1].Text)
}
