package nutrition

import (
	"math"
	"time"
)

// nearLimitShare is the fraction of the calorie target above which the day
// is reported as close to the limit.
const nearLimitShare = 0.9

// MealEntry is one logged food item. Entries are append-only.
type MealEntry struct {
	ID       int64
	UserID   int64
	FoodName string
	Grams    *int
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
	LoggedAt time.Time
}

// Totals is the sum of a set of meal entries.
type Totals struct {
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
}

// Add returns t plus o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		ProteinG: t.ProteinG + o.ProteinG,
		FatG:     t.FatG + o.FatG,
		CarbsG:   t.CarbsG + o.CarbsG,
	}
}

// Rounded returns t with macros rounded to one decimal place.
func (t Totals) Rounded() Totals {
	return Totals{
		Calories: t.Calories,
		ProteinG: Round1(t.ProteinG),
		FatG:     Round1(t.FatG),
		CarbsG:   Round1(t.CarbsG),
	}
}

// Sum adds up entries. An empty slice yields zero totals.
func Sum(entries []MealEntry) Totals {
	var t Totals
	for _, e := range entries {
		t = t.Add(Totals{Calories: e.Calories, ProteinG: e.ProteinG, FatG: e.FatG, CarbsG: e.CarbsG})
	}
	return t.Rounded()
}

// Round1 rounds x to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// DayBounds returns the first and last millisecond of the calendar day
// containing ref in loc. Both bounds are inclusive.
func DayBounds(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Flag classifies a day's calories against the target.
type Flag int

const (
	FlagNone Flag = iota
	FlagNearLimit
	FlagExceeded
	// FlagNoTarget marks totals reported without a target to compare against.
	FlagNoTarget
)

// Comparison is the outcome of Compare.
type Comparison struct {
	Flag       Flag
	ExceededBy int
}

// Compare checks totals against target. A nil target yields FlagNoTarget.
func Compare(totals Totals, target *Target) Comparison {
	if target == nil {
		return Comparison{Flag: FlagNoTarget}
	}
	switch {
	case totals.Calories > target.Calories:
		return Comparison{Flag: FlagExceeded, ExceededBy: totals.Calories - target.Calories}
	case float64(totals.Calories) > nearLimitShare*float64(target.Calories):
		return Comparison{Flag: FlagNearLimit}
	default:
		return Comparison{Flag: FlagNone}
	}
}
