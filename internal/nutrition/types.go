// Package nutrition holds the calorie and macronutrient arithmetic of the bot:
// the daily target calculator, daily totals aggregation and the static food
// dictionary used for text food logging.
package nutrition

import (
	"errors"
	"strings"
)

var (
	// ErrMissingData is returned when a profile lacks a field required for calculation.
	ErrMissingData = errors.New("profile data is missing or invalid")
	// ErrNotRecognized is returned when food text does not match the dictionary.
	ErrNotRecognized = errors.New("food not recognized")
)

// Goal is the user's weight-change objective.
type Goal string

const (
	GoalReduceWeight   Goal = "reduce_weight"
	GoalMaintainWeight Goal = "maintain_weight"
	GoalGainMuscle     Goal = "gain_muscle"
)

// Gender as used by the Mifflin-St Jeor formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHigh      ActivityLevel = "high"
)

var goalLabels = map[Goal]string{
	GoalReduceWeight:   "Сбросить вес",
	GoalMaintainWeight: "Удержать вес",
	GoalGainMuscle:     "Нарастить мышцы",
}

var genderLabels = map[Gender]string{
	GenderMale:   "Мужской",
	GenderFemale: "Женский",
}

var activityLabels = map[ActivityLevel]string{
	ActivitySedentary: "Сидячий образ жизни",
	ActivityLight:     "Минимум активности",
	ActivityModerate:  "Средняя активность",
	ActivityHigh:      "Высокая активность",
}

// Goals lists goals in prompt order.
var Goals = []Goal{GoalReduceWeight, GoalMaintainWeight, GoalGainMuscle}

// Genders lists genders in prompt order.
var Genders = []Gender{GenderMale, GenderFemale}

// ActivityLevels lists activity levels in prompt order (most active first).
var ActivityLevels = []ActivityLevel{ActivityHigh, ActivityModerate, ActivityLight, ActivitySedentary}

// Label returns the user-facing label of the goal.
func (g Goal) Label() string { return goalLabels[g] }

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	_, ok := goalLabels[g]
	return ok
}

// Label returns the user-facing label of the gender.
func (g Gender) Label() string { return genderLabels[g] }

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	_, ok := genderLabels[g]
	return ok
}

// Label returns the user-facing label of the activity level.
func (a ActivityLevel) Label() string { return activityLabels[a] }

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	_, ok := activityLabels[a]
	return ok
}

// ParseGoal maps a keyboard label to a Goal.
func ParseGoal(label string) (Goal, bool) {
	return parseLabel(label, goalLabels)
}

// ParseGender maps a keyboard label to a Gender.
func ParseGender(label string) (Gender, bool) {
	return parseLabel(label, genderLabels)
}

// ParseActivityLevel maps a keyboard label to an ActivityLevel.
func ParseActivityLevel(label string) (ActivityLevel, bool) {
	return parseLabel(label, activityLabels)
}

func parseLabel[T ~string](label string, labels map[T]string) (T, bool) {
	label = strings.TrimSpace(label)
	for v, l := range labels {
		if l == label {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Profile is the calculator input. Zero values mean "not provided".
type Profile struct {
	Goal          Goal
	Gender        Gender
	BirthYear     int
	ActivityLevel ActivityLevel
	HeightCm      int
	WeightKg      float64
}

// Target is a daily calorie and macronutrient goal in whole units.
type Target struct {
	Calories int
	ProteinG int
	FatG     int
	CarbsG   int
}
