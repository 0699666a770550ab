package onboarding

import "github.com/edgard/kbzhubot/internal/nutrition"

// Prompt is a transport-neutral question: text plus an optional reply
// keyboard. RemoveKeyboard asks the client to hide a previous keyboard.
type Prompt struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Empty reports whether p carries no text.
func (p Prompt) Empty() bool {
	return p.Text == ""
}

// AgeMode selects which answers the age step accepts.
type AgeMode string

const (
	AgeModeAge       AgeMode = "age"
	AgeModeBirthdate AgeMode = "birthdate"
	AgeModeAny       AgeMode = "any"
)

// Options tune the questionnaire.
type Options struct {
	AgeMode AgeMode
}

func (o Options) ageMode() AgeMode {
	switch o.AgeMode {
	case AgeModeBirthdate, AgeModeAny:
		return o.AgeMode
	default:
		return AgeModeAge
	}
}

// PromptFor returns the question asked on entering state.
func PromptFor(state State, opts Options) Prompt {
	switch state {
	case StateAwaitingGoal:
		return Prompt{Text: "Какая у тебя основная цель?", Keyboard: goalKeyboard()}
	case StateAwaitingGender:
		return Prompt{Text: "Отлично! Теперь выберите свой пол:", Keyboard: genderKeyboard()}
	case StateAwaitingAge:
		text := "Пожалуйста, введите ваш возраст (полных лет):"
		switch opts.ageMode() {
		case AgeModeBirthdate:
			text = "Пожалуйста, введите дату рождения в формате ГГГГ-ММ-ДД (например, 1995-04-21):"
		case AgeModeAny:
			text = "Пожалуйста, введите ваш возраст (полных лет) или дату рождения в формате ГГГГ-ММ-ДД:"
		}
		return Prompt{Text: text, RemoveKeyboard: true}
	case StateAwaitingActivity:
		return Prompt{Text: "Выберите ваш обычный уровень активности:", Keyboard: activityKeyboard()}
	case StateAwaitingHeight:
		return Prompt{Text: "Введите ваш рост в сантиметрах (например, 175):"}
	case StateAwaitingWeight:
		return Prompt{Text: "Введите ваш текущий вес в килограммах (например, 68.5):"}
	default:
		return Prompt{}
	}
}

// hintFor returns the re-prompt sent after an invalid answer in state.
func hintFor(state State, opts Options) Prompt {
	switch state {
	case StateAwaitingGoal:
		return Prompt{Text: "Пожалуйста, выберите цель:", Keyboard: goalKeyboard()}
	case StateAwaitingGender:
		return Prompt{Text: "Пожалуйста, выберите пол:", Keyboard: genderKeyboard()}
	case StateAwaitingAge:
		text := "Пожалуйста, введите ваш возраст цифрами (например, 25). Допустимый возраст от 7 до 100 лет."
		switch opts.ageMode() {
		case AgeModeBirthdate:
			text = "Пожалуйста, введите дату рождения в формате ГГГГ-ММ-ДД. Дата не может быть в будущем."
		case AgeModeAny:
			text = "Пожалуйста, введите возраст цифрами (от 7 до 100) или дату рождения в формате ГГГГ-ММ-ДД."
		}
		return Prompt{Text: text}
	case StateAwaitingActivity:
		return Prompt{Text: "Пожалуйста, выберите уровень активности, используя кнопки.", Keyboard: activityKeyboard()}
	case StateAwaitingHeight:
		return Prompt{Text: "Пожалуйста, введите ваш рост в сантиметрах (число от 50 до 280)."}
	case StateAwaitingWeight:
		return Prompt{Text: "Пожалуйста, введите ваш вес в килограммах (число от 20 до 500, можно с точкой или запятой)."}
	default:
		return Prompt{}
	}
}

func goalKeyboard() [][]string {
	row := make([]string, 0, len(nutrition.Goals))
	for _, g := range nutrition.Goals {
		row = append(row, g.Label())
	}
	return [][]string{row}
}

func genderKeyboard() [][]string {
	row := make([]string, 0, len(nutrition.Genders))
	for _, g := range nutrition.Genders {
		row = append(row, g.Label())
	}
	return [][]string{row}
}

// activityKeyboard lays the four levels out two per row.
func activityKeyboard() [][]string {
	var rows [][]string
	for i := 0; i < len(nutrition.ActivityLevels); i += 2 {
		row := []string{nutrition.ActivityLevels[i].Label()}
		if i+1 < len(nutrition.ActivityLevels) {
			row = append(row, nutrition.ActivityLevels[i+1].Label())
		}
		rows = append(rows, row)
	}
	return rows
}
