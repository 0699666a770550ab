package onboarding

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestTransitionAcceptsValidAnswers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		state State
		input string
		opts  Options
		want  Patch
		next  State
	}{
		{name: "goal", state: StateAwaitingGoal, input: "Сбросить вес", want: Patch{FieldGoal, "reduce_weight"}, next: StateAwaitingGender},
		{name: "gender", state: StateAwaitingGender, input: " Женский ", want: Patch{FieldGender, "female"}, next: StateAwaitingAge},
		{name: "age plain", state: StateAwaitingAge, input: "30", want: Patch{FieldBirthYear, 1995}, next: StateAwaitingActivity},
		{name: "age with words", state: StateAwaitingAge, input: "25 лет", want: Patch{FieldBirthYear, 2000}, next: StateAwaitingActivity},
		{name: "age lower bound", state: StateAwaitingAge, input: "7", want: Patch{FieldBirthYear, 2018}, next: StateAwaitingActivity},
		{name: "age upper bound", state: StateAwaitingAge, input: "100", want: Patch{FieldBirthYear, 1925}, next: StateAwaitingActivity},
		{
			name: "birthdate", state: StateAwaitingAge, input: "1990-02-28", opts: Options{AgeMode: AgeModeBirthdate},
			want: Patch{FieldBirthYear, 1990}, next: StateAwaitingActivity,
		},
		{
			name: "birthdate today", state: StateAwaitingAge, input: "2025-06-15", opts: Options{AgeMode: AgeModeAny},
			want: Patch{FieldBirthYear, 2025}, next: StateAwaitingActivity,
		},
		{
			name: "age in any mode", state: StateAwaitingAge, input: "41", opts: Options{AgeMode: AgeModeAny},
			want: Patch{FieldBirthYear, 1984}, next: StateAwaitingActivity,
		},
		{name: "activity", state: StateAwaitingActivity, input: "Высокая активность", want: Patch{FieldActivityLevel, "high"}, next: StateAwaitingHeight},
		{name: "height", state: StateAwaitingHeight, input: "175 см", want: Patch{FieldHeightCm, 175}, next: StateAwaitingWeight},
		{name: "height bounds", state: StateAwaitingHeight, input: "280", want: Patch{FieldHeightCm, 280}, next: StateAwaitingWeight},
		{name: "weight comma", state: StateAwaitingWeight, input: "68,5", want: Patch{FieldWeightKg, 68.5}, next: StateIdle},
		{name: "weight units", state: StateAwaitingWeight, input: "82.3 кг", want: Patch{FieldWeightKg, 82.3}, next: StateIdle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			step, err := Transition(tc.state, tc.input, testNow, tc.opts)
			require.NoError(t, err)
			require.Equal(t, tc.state, step.From)
			require.Equal(t, tc.next, step.Next)
			require.Equal(t, tc.want, step.Patch)
			require.Equal(t, tc.next == StateIdle, step.Completed())
			require.Equal(t, step.Completed(), step.Prompt.Empty())
		})
	}
}

func TestTransitionRejectsInvalidAnswers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		state State
		input string
		opts  Options
	}{
		{name: "gender label as goal", state: StateAwaitingGoal, input: "Мужской"},
		{name: "free text goal", state: StateAwaitingGoal, input: "похудеть"},
		{name: "unknown gender", state: StateAwaitingGender, input: "другой"},
		{name: "age too young", state: StateAwaitingAge, input: "6"},
		{name: "age too old", state: StateAwaitingAge, input: "101"},
		{name: "age range text", state: StateAwaitingAge, input: "1-2"},
		{name: "age empty", state: StateAwaitingAge, input: "лет"},
		{name: "date in age mode", state: StateAwaitingAge, input: "1990-01-01"},
		{name: "future birthdate", state: StateAwaitingAge, input: "2025-06-16", opts: Options{AgeMode: AgeModeBirthdate}},
		{name: "ancient birthdate", state: StateAwaitingAge, input: "1905-01-01", opts: Options{AgeMode: AgeModeBirthdate}},
		{name: "age in birthdate mode", state: StateAwaitingAge, input: "30", opts: Options{AgeMode: AgeModeBirthdate}},
		{name: "activity typed", state: StateAwaitingActivity, input: "много"},
		{name: "height low", state: StateAwaitingHeight, input: "49"},
		{name: "height high", state: StateAwaitingHeight, input: "281"},
		{name: "height fraction", state: StateAwaitingHeight, input: "175.5"},
		{name: "weight lower bound exclusive", state: StateAwaitingWeight, input: "20"},
		{name: "weight upper bound exclusive", state: StateAwaitingWeight, input: "500"},
		{name: "weight garbage", state: StateAwaitingWeight, input: "семьдесят"},
		{name: "weight two points", state: StateAwaitingWeight, input: "70.1.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Transition(tc.state, tc.input, testNow, tc.opts)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.state, verr.State)
			require.False(t, verr.Prompt.Empty())
		})
	}
}

func TestTransitionIdle(t *testing.T) {
	t.Parallel()

	_, err := Transition(StateIdle, "яблоко", testNow, Options{})
	require.True(t, errors.Is(err, ErrNotOnboarding))

	_, err = Transition(State("bogus"), "яблоко", testNow, Options{})
	require.True(t, errors.Is(err, ErrNotOnboarding))
}

func TestFullQuestionnaire(t *testing.T) {
	t.Parallel()

	answers := []string{"Удержать вес", "Мужской", "30", "Сидячий образ жизни", "175", "70"}
	state := StateAwaitingGoal
	var fields []Field
	for _, a := range answers {
		step, err := Transition(state, a, testNow, Options{})
		require.NoError(t, err)
		fields = append(fields, step.Patch.Field)
		state = step.Next
	}
	require.Equal(t, StateIdle, state)
	require.Equal(t, []Field{FieldGoal, FieldGender, FieldBirthYear, FieldActivityLevel, FieldHeightCm, FieldWeightKg}, fields)
}

func TestParseState(t *testing.T) {
	t.Parallel()

	require.Equal(t, StateAwaitingHeight, ParseState("awaiting_height"))
	require.Equal(t, StateIdle, ParseState(""))
	require.Equal(t, StateIdle, ParseState("complete"))
	require.False(t, StateIdle.Active())
	require.True(t, StateAwaitingGoal.Active())
	require.Equal(t, "idle", StateIdle.String())
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	goal := PromptFor(StateAwaitingGoal, Options{})
	require.Equal(t, [][]string{{"Сбросить вес", "Удержать вес", "Нарастить мышцы"}}, goal.Keyboard)

	age := PromptFor(StateAwaitingAge, Options{})
	require.True(t, age.RemoveKeyboard)
	require.Empty(t, age.Keyboard)

	activity := PromptFor(StateAwaitingActivity, Options{})
	require.Equal(t, [][]string{
		{"Высокая активность", "Средняя активность"},
		{"Минимум активности", "Сидячий образ жизни"},
	}, activity.Keyboard)

	require.True(t, PromptFor(StateIdle, Options{}).Empty())
}
