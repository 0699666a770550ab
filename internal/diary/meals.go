package diary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/nutrition"
)

// maxExportDays bounds MealsForDays.
const maxExportDays = 31

// FoodInput is an incoming food message: either text or a photo.
// MessageID is the Telegram message ID; zero disables deduplication.
type FoodInput struct {
	MessageID   int64
	Text        string
	PhotoFileID string
}

// FoodResult is the outcome of a logged meal. Duplicate is set, and nothing
// else, when the message was already logged.
type FoodResult struct {
	Duplicate bool

	Item    nutrition.FoodItem
	Entry   nutrition.MealEntry
	Summary DaySummary
}

// DaySummary is a day's totals compared against the target. Target is nil
// when the profile is incomplete, and Comparison then carries FlagNoTarget.
type DaySummary struct {
	Day        time.Time
	Totals     nutrition.Totals
	MealCount  int
	Target     *nutrition.Target
	Comparison nutrition.Comparison
}

// HandleFoodMessage looks up the food and appends it to today's log.
//
// The profile must be complete (nutrition.ErrMissingData otherwise). Photos
// yield ErrPhotoNotSupported and unknown text nutrition.ErrNotRecognized;
// neither writes anything. A message that was already applied, as a meal or
// as an onboarding answer, is reported as a duplicate.
func (s *Service) HandleFoodMessage(ctx context.Context, userID int64, in FoodInput) (FoodResult, error) {
	customer, err := s.customer(ctx, userID)
	if err != nil {
		return FoodResult{}, err
	}
	if customer.Seen(in.MessageID) {
		s.logger.InfoContext(ctx, "Ignoring redelivered food message", "user_id", userID, "message_id", in.MessageID)
		return FoodResult{Duplicate: true}, nil
	}

	view, err := s.ProfileSummary(ctx, userID)
	if err != nil {
		return FoodResult{}, err
	}
	if !view.Complete {
		return FoodResult{}, fmt.Errorf("%w: profile incomplete", nutrition.ErrMissingData)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && in.PhotoFileID != "" {
		s.logger.InfoContext(ctx, "Photo food message received", "user_id", userID)
		return FoodResult{}, ErrPhotoNotSupported
	}

	item, err := s.dict.Lookup(text)
	if err != nil {
		if errors.Is(err, nutrition.ErrNotRecognized) {
			s.metrics.FoodUnrecognized.Inc()
		}
		return FoodResult{}, err
	}

	entry, err := s.logMeal(ctx, userID, in.MessageID, item)
	if errors.Is(err, database.ErrDuplicateMessage) {
		s.logger.InfoContext(ctx, "Ignoring redelivered food message", "user_id", userID, "message_id", in.MessageID)
		return FoodResult{Duplicate: true}, nil
	}
	if err != nil {
		return FoodResult{}, err
	}

	result := FoodResult{Item: item, Entry: entry}
	summary, err := s.TodaySummary(ctx, userID)
	if err != nil {
		// The meal is saved; report it with an empty summary rather than fail.
		s.logger.WarnContext(ctx, "Failed to build summary after logging meal", "user_id", userID, "error", err)
		return result, nil
	}
	result.Summary = summary
	return result, nil
}

func (s *Service) logMeal(ctx context.Context, userID, messageID int64, item nutrition.FoodItem) (nutrition.MealEntry, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nutrition.MealEntry{}, err
	}
	defer unlock()

	now := s.clock()
	meal := &database.Meal{
		FoodName: item.Name,
		Calories: item.Calories,
		ProteinG: item.ProteinG,
		FatG:     item.FatG,
		CarbsG:   item.CarbsG,
		LoggedAt: database.ToMillis(now),
	}
	if item.Grams > 0 {
		meal.Grams = sql.NullInt64{Int64: int64(item.Grams), Valid: true}
	}
	if messageID != 0 {
		meal.TgMessageID = sql.NullInt64{Int64: messageID, Valid: true}
	}
	if err := s.store.AppendMeal(ctx, userID, meal); err != nil {
		if errors.Is(err, database.ErrDuplicateMessage) {
			return nutrition.MealEntry{}, err
		}
		s.metrics.ErrorsTotal.WithLabelValues("persistence").Inc()
		return nutrition.MealEntry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.metrics.MealsLogged.Inc()
	s.logger.InfoContext(ctx, "Meal logged", "user_id", userID, "meal_id", meal.ID, "calories", meal.Calories)
	return s.entry(userID, *meal), nil
}

// TodaySummary returns today's totals in the diary location.
func (s *Service) TodaySummary(ctx context.Context, userID int64) (DaySummary, error) {
	return s.DaySummary(ctx, userID, s.clock())
}

// DaySummary returns the totals of the calendar day containing ref.
func (s *Service) DaySummary(ctx context.Context, userID int64, ref time.Time) (DaySummary, error) {
	start, end := nutrition.DayBounds(ref, s.loc)
	sum, err := s.store.SumMeals(ctx, userID, start, end)
	if err != nil {
		return DaySummary{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summary := DaySummary{
		Day: start,
		Totals: nutrition.Totals{
			Calories: int(sum.Calories),
			ProteinG: sum.ProteinG,
			FatG:     sum.FatG,
			CarbsG:   sum.CarbsG,
		}.Rounded(),
		MealCount: int(sum.Count),
	}

	target, err := s.CalorieTarget(ctx, userID)
	switch {
	case err == nil:
		summary.Target = &target.Target
	case errors.Is(err, nutrition.ErrMissingData), errors.Is(err, ErrProfileNotFound):
		// Totals are still reported, without a target.
	default:
		return DaySummary{}, err
	}
	summary.Comparison = nutrition.Compare(summary.Totals, summary.Target)
	return summary, nil
}

// MealsForDays returns the meals of the last days calendar days, today
// included, and the window they cover. days is clamped to [1, 31].
func (s *Service) MealsForDays(ctx context.Context, userID int64, days int) ([]nutrition.MealEntry, time.Time, time.Time, error) {
	if days < 1 {
		days = 1
	}
	if days > maxExportDays {
		days = maxExportDays
	}
	_, end := nutrition.DayBounds(s.clock(), s.loc)
	start, _ := nutrition.DayBounds(s.clock().AddDate(0, 0, -(days - 1)), s.loc)

	meals, err := s.store.ListMeals(ctx, userID, start, end)
	if err != nil {
		return nil, start, end, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	entries := make([]nutrition.MealEntry, 0, len(meals))
	for _, m := range meals {
		entries = append(entries, s.entry(userID, m))
	}
	return entries, start, end, nil
}

func (s *Service) entry(userID int64, m database.Meal) nutrition.MealEntry {
	e := nutrition.MealEntry{
		ID:       m.ID,
		UserID:   userID,
		FoodName: m.FoodName,
		Calories: m.Calories,
		ProteinG: m.ProteinG,
		FatG:     m.FatG,
		CarbsG:   m.CarbsG,
		LoggedAt: database.FromMillis(m.LoggedAt).In(s.loc),
	}
	if m.Grams.Valid {
		g := int(m.Grams.Int64)
		e.Grams = &g
	}
	return e
}
