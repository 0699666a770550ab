package onboarding

import (
	"strconv"
	"strings"
	"time"

	"github.com/edgard/kbzhubot/internal/nutrition"
)

const (
	minAge    = 7
	maxAge    = 100
	minHeight = 50
	maxHeight = 280
	// Weight bounds are exclusive.
	minWeight = 20.0
	maxWeight = 500.0
	// maxYearsBack keeps birth years inside the calculator's window.
	maxYearsBack = 120
)

const birthdateLayout = "2006-01-02"

// Transition validates input for state. On success it returns the step to
// persist; on failure a *ValidationError with the re-prompt. now supplies
// the current date for age and birthdate conversion.
func Transition(state State, input string, now time.Time, opts Options) (Step, error) {
	if !state.Active() {
		return Step{}, ErrNotOnboarding
	}
	input = strings.TrimSpace(input)

	patch, reason := parseAnswer(state, input, now, opts)
	if reason != "" {
		return Step{}, &ValidationError{State: state, Reason: reason, Prompt: hintFor(state, opts)}
	}

	next := state.Next()
	return Step{
		From:   state,
		Next:   next,
		Patch:  patch,
		Prompt: PromptFor(next, opts),
	}, nil
}

// parseAnswer returns the patch for a valid answer, or a non-empty reason.
func parseAnswer(state State, input string, now time.Time, opts Options) (Patch, string) {
	switch state {
	case StateAwaitingGoal:
		goal, ok := nutrition.ParseGoal(input)
		if !ok {
			return Patch{}, "unknown goal"
		}
		return Patch{Field: FieldGoal, Value: string(goal)}, ""

	case StateAwaitingGender:
		gender, ok := nutrition.ParseGender(input)
		if !ok {
			return Patch{}, "unknown gender"
		}
		return Patch{Field: FieldGender, Value: string(gender)}, ""

	case StateAwaitingAge:
		year, reason := parseBirthYear(input, now, opts.ageMode())
		if reason != "" {
			return Patch{}, reason
		}
		return Patch{Field: FieldBirthYear, Value: year}, ""

	case StateAwaitingActivity:
		level, ok := nutrition.ParseActivityLevel(input)
		if !ok {
			return Patch{}, "unknown activity level"
		}
		return Patch{Field: FieldActivityLevel, Value: string(level)}, ""

	case StateAwaitingHeight:
		height, err := strconv.Atoi(sanitizeInt(input))
		if err != nil {
			return Patch{}, "height is not a number"
		}
		if height < minHeight || height > maxHeight {
			return Patch{}, "height out of range"
		}
		return Patch{Field: FieldHeightCm, Value: height}, ""

	case StateAwaitingWeight:
		weight, err := strconv.ParseFloat(sanitizeFloat(input), 64)
		if err != nil {
			return Patch{}, "weight is not a number"
		}
		if weight <= minWeight || weight >= maxWeight {
			return Patch{}, "weight out of range"
		}
		return Patch{Field: FieldWeightKg, Value: weight}, ""
	}
	return Patch{}, "unexpected state"
}

func parseBirthYear(input string, now time.Time, mode AgeMode) (int, string) {
	if mode != AgeModeAge {
		if date, err := time.ParseInLocation(birthdateLayout, input, now.Location()); err == nil {
			if date.After(now) {
				return 0, "birthdate in the future"
			}
			if date.Year() <= now.Year()-maxYearsBack {
				return 0, "birthdate too far in the past"
			}
			return date.Year(), ""
		}
		if mode == AgeModeBirthdate {
			return 0, "birthdate is not in YYYY-MM-DD format"
		}
	}

	age, err := strconv.Atoi(sanitizeInt(input))
	if err != nil {
		return 0, "age is not a number"
	}
	if age < minAge || age > maxAge {
		return 0, "age out of range"
	}
	return now.Year() - age, ""
}

// sanitizeInt drops everything except digits and signs, so "25 лет" reads
// as 25 while "1-2" stays unparsable.
func sanitizeInt(s string) string {
	return keep(s, func(r rune) bool { return r >= '0' && r <= '9' || r == '+' || r == '-' })
}

// sanitizeFloat is sanitizeInt that also keeps the decimal point and
// accepts a comma as one.
func sanitizeFloat(s string) string {
	s = strings.ReplaceAll(s, ",", ".")
	return keep(s, func(r rune) bool { return r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.' })
}

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
