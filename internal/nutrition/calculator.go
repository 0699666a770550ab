package nutrition

import (
	"fmt"
	"math"
)

const (
	kcalPerProtein = 4
	kcalPerFat     = 9
	kcalPerCarb    = 4
)

// Table holds the calculation constants. It is read-only after construction.
type Table struct {
	ActivityFactors map[ActivityLevel]float64
	GoalAdjustments map[Goal]float64
	ProteinPerKg    map[Goal]float64
	MinFatPerKg     float64
	// FatShare is the fraction of non-protein calories assigned to fat.
	FatShare          float64
	MinCaloriesMale   float64
	MinCaloriesFemale float64
}

// DefaultTable returns the Mifflin-St Jeor based constants used by the bot.
func DefaultTable() Table {
	return Table{
		ActivityFactors: map[ActivityLevel]float64{
			ActivitySedentary: 1.2,
			ActivityLight:     1.375,
			ActivityModerate:  1.55,
			ActivityHigh:      1.725,
		},
		GoalAdjustments: map[Goal]float64{
			GoalReduceWeight:   -500,
			GoalMaintainWeight: 0,
			GoalGainMuscle:     400,
		},
		ProteinPerKg: map[Goal]float64{
			GoalReduceWeight:   1.8,
			GoalMaintainWeight: 1.4,
			GoalGainMuscle:     1.8,
		},
		MinFatPerKg:       0.8,
		FatShare:          0.25,
		MinCaloriesMale:   1400,
		MinCaloriesFemale: 1200,
	}
}

// Calculator computes daily targets. CurrentYear is injected so results are
// reproducible in tests.
type Calculator struct {
	table       Table
	currentYear func() int
}

// NewCalculator creates a calculator over table using currentYear for age.
func NewCalculator(table Table, currentYear func() int) *Calculator {
	return &Calculator{table: table, currentYear: currentYear}
}

// HasRequiredData reports whether every field needed by CalculateNorm is
// present and within its domain.
func (c *Calculator) HasRequiredData(p Profile) bool {
	return len(c.missingFields(p)) == 0
}

func (c *Calculator) missingFields(p Profile) []string {
	year := c.currentYear()
	var missing []string
	if !(p.WeightKg > 0) {
		missing = append(missing, "weight")
	}
	if p.HeightCm <= 0 {
		missing = append(missing, "height")
	}
	if p.BirthYear <= year-120 || p.BirthYear > year {
		missing = append(missing, "birth_year")
	}
	if !p.Gender.Valid() {
		missing = append(missing, "gender")
	}
	if _, ok := c.table.ActivityFactors[p.ActivityLevel]; !ok {
		missing = append(missing, "activity_level")
	}
	if _, ok := c.table.GoalAdjustments[p.Goal]; !ok {
		missing = append(missing, "goal")
	}
	return missing
}

// CalculateNorm returns the daily target for p, or ErrMissingData.
//
// When the carbohydrate remainder would be negative, fat falls back to its
// per-kg minimum and carbs are clamped at zero; protein and calories are kept,
// so the macros may not add up to the calorie target.
func (c *Calculator) CalculateNorm(p Profile) (Target, error) {
	if missing := c.missingFields(p); len(missing) > 0 {
		return Target{}, fmt.Errorf("%w: %v", ErrMissingData, missing)
	}

	age := float64(c.currentYear() - p.BirthYear)
	weight := p.WeightKg
	height := float64(p.HeightCm)

	bmr := 10*weight + 6.25*height - 5*age
	minCalories := c.table.MinCaloriesFemale
	if p.Gender == GenderMale {
		bmr += 5
		minCalories = c.table.MinCaloriesMale
	} else {
		bmr -= 161
	}

	tdee := bmr * c.table.ActivityFactors[p.ActivityLevel]
	norm := math.Max(tdee+c.table.GoalAdjustments[p.Goal], minCalories)
	calories := math.Round(norm)

	proteinG := weight * c.table.ProteinPerKg[p.Goal]
	proteinKcal := proteinG * kcalPerProtein

	minFatG := weight * c.table.MinFatPerKg
	fatKcal := math.Max(minFatG*kcalPerFat, (calories-proteinKcal)*c.table.FatShare)
	fatG := fatKcal / kcalPerFat

	carbG := (calories - proteinKcal - fatKcal) / kcalPerCarb
	if carbG < 0 {
		fatG = minFatG
		fatKcal = fatG * kcalPerFat
		carbG = math.Max(0, (calories-proteinKcal-fatKcal)/kcalPerCarb)
	}

	return Target{
		Calories: int(calories),
		ProteinG: int(math.Round(proteinG)),
		FatG:     int(math.Round(fatG)),
		CarbsG:   int(math.Round(carbG)),
	}, nil
}
