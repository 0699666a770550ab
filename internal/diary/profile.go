package diary

import (
	"context"
	"fmt"

	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/nutrition"
)

// ProfileView is the latest profile record as shown to the user. Nil
// pointers and empty enums are fields not answered yet.
type ProfileView struct {
	Goal          nutrition.Goal
	Gender        nutrition.Gender
	BirthYear     *int
	Age           *int
	ActivityLevel nutrition.ActivityLevel
	HeightCm      *int
	WeightKg      *float64
	// Complete reports whether the profile is usable for calculation.
	Complete bool
}

// Profile converts the view into calculator input.
func (v ProfileView) Profile() nutrition.Profile {
	p := nutrition.Profile{Goal: v.Goal, Gender: v.Gender, ActivityLevel: v.ActivityLevel}
	if v.BirthYear != nil {
		p.BirthYear = *v.BirthYear
	}
	if v.HeightCm != nil {
		p.HeightCm = *v.HeightCm
	}
	if v.WeightKg != nil {
		p.WeightKg = *v.WeightKg
	}
	return p
}

// TargetView is the daily target together with the goal it serves.
type TargetView struct {
	Goal   nutrition.Goal
	Target nutrition.Target
}

// ProfileSummary returns the latest profile of the user.
func (s *Service) ProfileSummary(ctx context.Context, userID int64) (ProfileView, error) {
	rec, err := s.store.GetLatestProfile(ctx, userID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if rec == nil {
		return ProfileView{}, ErrProfileNotFound
	}
	return s.view(rec), nil
}

// CalorieTarget computes the daily target from the latest profile. An
// incomplete profile yields nutrition.ErrMissingData.
func (s *Service) CalorieTarget(ctx context.Context, userID int64) (TargetView, error) {
	view, err := s.ProfileSummary(ctx, userID)
	if err != nil {
		return TargetView{}, err
	}
	return s.calculate(view)
}

func (s *Service) calculate(view ProfileView) (TargetView, error) {
	target, err := s.calc.CalculateNorm(view.Profile())
	if err != nil {
		return TargetView{}, err
	}
	return TargetView{Goal: view.Goal, Target: target}, nil
}

func (s *Service) view(rec *database.ProfileRecord) ProfileView {
	v := ProfileView{
		Goal:          nutrition.Goal(rec.Goal.String),
		Gender:        nutrition.Gender(rec.Gender.String),
		ActivityLevel: nutrition.ActivityLevel(rec.ActivityLevel.String),
	}
	if rec.BirthYear.Valid {
		year := int(rec.BirthYear.Int64)
		age := s.clock().Year() - year
		v.BirthYear = &year
		v.Age = &age
	}
	if rec.HeightCm.Valid {
		h := int(rec.HeightCm.Int64)
		v.HeightCm = &h
	}
	if rec.WeightKg.Valid {
		w := rec.WeightKg.Float64
		v.WeightKg = &w
	}
	v.Complete = s.calc.HasRequiredData(v.Profile())
	return v
}
