// Package onboarding implements the profile questionnaire as a pure state
// machine. Transition validates one answer against the current step and
// reports the field to persist, the next state and the next prompt. It does
// no I/O; callers persist the step atomically and deliver the prompt.
package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected user input. The state must not change.
	ErrValidation = errors.New("invalid onboarding answer")
	// ErrNotOnboarding is returned by Transition in the idle state.
	ErrNotOnboarding = errors.New("no onboarding in progress")
)

// State is the persisted onboarding step. The zero value is idle: either
// onboarding never started or it has completed.
type State string

const (
	StateIdle             State = ""
	StateAwaitingGoal     State = "awaiting_goal"
	StateAwaitingGender   State = "awaiting_gender"
	StateAwaitingAge      State = "awaiting_age"
	StateAwaitingActivity State = "awaiting_activity"
	StateAwaitingHeight   State = "awaiting_height"
	StateAwaitingWeight   State = "awaiting_weight"
)

// order is the fixed questionnaire sequence.
var order = []State{
	StateAwaitingGoal,
	StateAwaitingGender,
	StateAwaitingAge,
	StateAwaitingActivity,
	StateAwaitingHeight,
	StateAwaitingWeight,
}

// ParseState maps a stored value to a State. Unknown values are idle, so a
// corrupted row routes the user to food logging instead of a dead step.
func ParseState(s string) State {
	for _, st := range order {
		if string(st) == s {
			return st
		}
	}
	return StateIdle
}

// Active reports whether s is one of the questionnaire steps.
func (s State) Active() bool {
	return ParseState(string(s)) != StateIdle
}

// Next returns the state following s. The last step is followed by idle.
func (s State) Next() State {
	for i, st := range order {
		if st == s && i+1 < len(order) {
			return order[i+1]
		}
	}
	return StateIdle
}

func (s State) String() string {
	if s == StateIdle {
		return "idle"
	}
	return string(s)
}

// Field names a profile column written by a step.
type Field string

const (
	FieldGoal          Field = "goal"
	FieldGender        Field = "gender"
	FieldBirthYear     Field = "birth_year"
	FieldActivityLevel Field = "activity_level"
	FieldHeightCm      Field = "height_cm"
	FieldWeightKg      Field = "weight_kg"
)

// Patch is the single field value accepted by a step. Value holds a string
// for enum fields, an int for birth year and height and a float64 for weight.
type Patch struct {
	Field Field
	Value any
}

// Step is the outcome of an accepted answer.
type Step struct {
	From  State
	Next  State
	Patch Patch
	// Prompt asks for the next field. It is empty when Next is idle, in which
	// case the caller sends the completion summary instead.
	Prompt Prompt
}

// Completed reports whether the step finishes the questionnaire.
func (s Step) Completed() bool {
	return s.Next == StateIdle
}

// ValidationError describes a rejected answer together with the prompt to
// send back to the user.
type ValidationError struct {
	State  State
	Reason string
	Prompt Prompt
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.State, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
