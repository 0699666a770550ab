package nutrition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const testYear = 2025

func newTestCalculator() *Calculator {
	return NewCalculator(DefaultTable(), func() int { return testYear })
}

func completeProfile() Profile {
	return Profile{
		Goal:          GoalMaintainWeight,
		Gender:        GenderMale,
		BirthYear:     testYear - 30,
		ActivityLevel: ActivitySedentary,
		HeightCm:      175,
		WeightKg:      70,
	}
}

func TestCalculateNormReferenceProfile(t *testing.T) {
	t.Parallel()

	// BMR 1648.75, TDEE 1978.5, fat at its 0.8 g/kg minimum.
	got, err := newTestCalculator().CalculateNorm(completeProfile())
	require.NoError(t, err)
	require.Equal(t, Target{Calories: 1979, ProteinG: 98, FatG: 56, CarbsG: 271}, got)
}

func TestCalculateNormAppliesGenderFloor(t *testing.T) {
	t.Parallel()

	calc := newTestCalculator()
	cases := []struct {
		name   string
		gender Gender
		floor  int
	}{
		{name: "male", gender: GenderMale, floor: 1400},
		{name: "female", gender: GenderFemale, floor: 1200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := Profile{
				Goal:          GoalReduceWeight,
				Gender:        tc.gender,
				BirthYear:     testYear - 100,
				ActivityLevel: ActivitySedentary,
				HeightCm:      50,
				WeightKg:      21,
			}
			got, err := calc.CalculateNorm(p)
			require.NoError(t, err)
			require.Equal(t, tc.floor, got.Calories)
		})
	}
}

func TestCalculateNormClampsNegativeCarbs(t *testing.T) {
	t.Parallel()

	p := Profile{
		Goal:          GoalReduceWeight,
		Gender:        GenderFemale,
		BirthYear:     testYear - 90,
		ActivityLevel: ActivitySedentary,
		HeightCm:      150,
		WeightKg:      200,
	}
	got, err := newTestCalculator().CalculateNorm(p)
	require.NoError(t, err)
	require.Equal(t, Target{Calories: 2292, ProteinG: 360, FatG: 160, CarbsG: 0}, got)
}

func TestCalculateNormFloorAndNonNegativeAcrossDomain(t *testing.T) {
	t.Parallel()

	calc := newTestCalculator()
	for _, gender := range Genders {
		for _, goal := range Goals {
			for _, level := range ActivityLevels {
				for _, weight := range []float64{20.5, 45, 70, 120.3, 250, 499.9} {
					for _, height := range []int{50, 120, 175, 280} {
						for _, age := range []int{7, 30, 65, 100, 119} {
							p := Profile{Goal: goal, Gender: gender, BirthYear: testYear - age, ActivityLevel: level, HeightCm: height, WeightKg: weight}
							got, err := calc.CalculateNorm(p)
							require.NoError(t, err)

							floor := 1200
							if gender == GenderMale {
								floor = 1400
							}
							require.GreaterOrEqual(t, got.Calories, floor, "%+v", p)
							require.GreaterOrEqual(t, got.ProteinG, 0)
							require.GreaterOrEqual(t, got.FatG, 0)
							require.GreaterOrEqual(t, got.CarbsG, 0, "%+v", p)

							again, err := calc.CalculateNorm(p)
							require.NoError(t, err)
							require.Equal(t, got, again)
						}
					}
				}
			}
		}
	}
}

func TestHasRequiredData(t *testing.T) {
	t.Parallel()

	calc := newTestCalculator()
	require.True(t, calc.HasRequiredData(completeProfile()))

	cases := map[string]func(p *Profile){
		"no weight":           func(p *Profile) { p.WeightKg = 0 },
		"negative weight":     func(p *Profile) { p.WeightKg = -3 },
		"no height":           func(p *Profile) { p.HeightCm = 0 },
		"no birth year":       func(p *Profile) { p.BirthYear = 0 },
		"birth year too old":  func(p *Profile) { p.BirthYear = testYear - 120 },
		"birth year future":   func(p *Profile) { p.BirthYear = testYear + 1 },
		"unknown gender":      func(p *Profile) { p.Gender = "other" },
		"no gender":           func(p *Profile) { p.Gender = "" },
		"unknown activity":    func(p *Profile) { p.ActivityLevel = "extreme" },
		"unknown goal":        func(p *Profile) { p.Goal = "bulk" },
		"no goal":             func(p *Profile) { p.Goal = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := completeProfile()
			mutate(&p)
			require.False(t, calc.HasRequiredData(p))

			_, err := calc.CalculateNorm(p)
			require.True(t, errors.Is(err, ErrMissingData))
		})
	}
}

func TestParseLabels(t *testing.T) {
	t.Parallel()

	goal, ok := ParseGoal(" Удержать вес ")
	require.True(t, ok)
	require.Equal(t, GoalMaintainWeight, goal)

	_, ok = ParseGoal("Мужской")
	require.False(t, ok)

	gender, ok := ParseGender("Женский")
	require.True(t, ok)
	require.Equal(t, GenderFemale, gender)

	level, ok := ParseActivityLevel("Минимум активности")
	require.True(t, ok)
	require.Equal(t, ActivityLight, level)
	require.Equal(t, "Минимум активности", level.Label())
}
