// Package diary is the application core of the bot. It drives the onboarding
// questionnaire, serves profile and target queries, logs meals and builds the
// daily summary. Transport concerns stay in the handlers.
package diary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/locker"
	"github.com/edgard/kbzhubot/internal/metrics"
	"github.com/edgard/kbzhubot/internal/nutrition"
	"github.com/edgard/kbzhubot/internal/onboarding"
)

var (
	// ErrPersistence wraps a store failure. Durable state is unchanged.
	ErrPersistence = errors.New("failed to persist data")
	// ErrProfileNotFound means the user never ran /start.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNotOnboarding means an answer arrived while no step is pending.
	ErrNotOnboarding = onboarding.ErrNotOnboarding
	// ErrPhotoNotSupported is returned for photo food messages, which are
	// acknowledged but not logged.
	ErrPhotoNotSupported = errors.New("photo food recognition is not supported")
)

// User identifies the sender of an update.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Login     string
}

// Deps are the collaborators of Service.
type Deps struct {
	Store      database.Store
	Locker     locker.Locker
	Dictionary *nutrition.Dictionary
	Table      nutrition.Table
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// Location is the calendar used for day windows and ages. Defaults to time.Local.
	Location   *time.Location
	Onboarding onboarding.Options
}

// Service implements the diary operations.
type Service struct {
	store   database.Store
	locker  locker.Locker
	dict    *nutrition.Dictionary
	calc    *nutrition.Calculator
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location
	opts    onboarding.Options
}

// NewService creates a Service from deps, filling defaults for optional ones.
func NewService(deps Deps) *Service {
	s := &Service{
		store:   deps.Store,
		locker:  deps.Locker,
		dict:    deps.Dictionary,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     deps.Now,
		loc:     deps.Location,
		opts:    deps.Onboarding,
	}
	if s.locker == nil {
		s.locker = locker.NewLocal()
	}
	if s.dict == nil {
		s.dict = nutrition.DefaultDictionary()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "diary")
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	table := deps.Table
	if table.ActivityFactors == nil {
		table = nutrition.DefaultTable()
	}
	s.calc = nutrition.NewCalculator(table, func() int { return s.clock().Year() })
	return s
}

// clock returns the current time in the diary location.
func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) lock(ctx context.Context, userID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("user:%d", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return unlock, nil
}

// State returns the pending onboarding step of the user, idle if none.
func (s *Service) State(ctx context.Context, userID int64) (onboarding.State, error) {
	c, err := s.customer(ctx, userID)
	if err != nil {
		return onboarding.StateIdle, err
	}
	return onboarding.ParseState(c.State.String), nil
}

// customer loads the user's row, mapping a missing one to ErrProfileNotFound.
func (s *Service) customer(ctx context.Context, userID int64) (*database.Customer, error) {
	c, err := s.store.GetCustomer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if c == nil {
		return nil, ErrProfileNotFound
	}
	return c, nil
}

func (s *Service) duplicate(ctx context.Context, state onboarding.State, userID, messageID int64) {
	s.metrics.OnboardingSteps.WithLabelValues(state.String(), metrics.ResultDuplicate).Inc()
	s.logger.InfoContext(ctx, "Ignoring redelivered answer", "user_id", userID, "message_id", messageID, "state", state.String())
}

// Start (re)starts the questionnaire. Previous profile records and meals
// are kept. It returns the first question, or an empty prompt when
// messageID was already applied. A zero messageID always restarts.
func (s *Service) Start(ctx context.Context, user User, messageID int64) (onboarding.Prompt, error) {
	unlock, err := s.lock(ctx, user.ID)
	if err != nil {
		return onboarding.Prompt{}, err
	}
	defer unlock()

	customer := &database.Customer{
		TgID:          user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Login:         user.Login,
		LastMessageID: messageID,
	}
	if err := s.store.StartOnboarding(ctx, customer, string(onboarding.StateAwaitingGoal)); err != nil {
		if errors.Is(err, database.ErrDuplicateMessage) {
			s.logger.InfoContext(ctx, "Ignoring redelivered start", "user_id", user.ID, "message_id", messageID)
			return onboarding.Prompt{}, nil
		}
		s.metrics.ErrorsTotal.WithLabelValues("persistence").Inc()
		return onboarding.Prompt{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "Onboarding started", "user_id", user.ID)
	return onboarding.PromptFor(onboarding.StateAwaitingGoal, s.opts), nil
}

// AnswerResult is the outcome of an accepted onboarding answer.
type AnswerResult struct {
	// Duplicate is set when the message was already applied. Nothing else
	// is filled and nothing was written.
	Duplicate bool

	// Prompt is the next question; empty once the questionnaire completes.
	Prompt     onboarding.Prompt
	StateAfter onboarding.State
	Completed  bool
	// Profile and Target are filled on completion. TargetErr is set instead of
	// Target when the stored profile is not calculable.
	Profile   *ProfileView
	Target    *TargetView
	TargetErr error
}

// HandleOnboardingAnswer validates and stores the answer carried by message
// messageID. A message that was already applied is reported with
// Duplicate set and a nil error. A rejected answer returns
// *onboarding.ValidationError carrying the re-prompt; a store failure
// returns ErrPersistence; a concurrent change of state returns
// database.ErrStateConflict. In every error case the state is unchanged.
func (s *Service) HandleOnboardingAnswer(ctx context.Context, userID, messageID int64, text string) (AnswerResult, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	defer unlock()

	customer, err := s.customer(ctx, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	state := onboarding.ParseState(customer.State.String)
	if customer.Seen(messageID) {
		s.duplicate(ctx, state, userID, messageID)
		return AnswerResult{Duplicate: true}, nil
	}

	step, err := onboarding.Transition(state, text, s.clock(), s.opts)
	if err != nil {
		if errors.Is(err, onboarding.ErrValidation) {
			s.metrics.OnboardingSteps.WithLabelValues(state.String(), metrics.ResultRejected).Inc()
		}
		return AnswerResult{}, err
	}

	err = s.store.ApplyAnswer(ctx, userID, messageID, string(step.From), string(step.Next), string(step.Patch.Field), step.Patch.Value)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateMessage) {
			s.duplicate(ctx, state, userID, messageID)
			return AnswerResult{Duplicate: true}, nil
		}
		if errors.Is(err, database.ErrStateConflict) {
			s.metrics.OnboardingSteps.WithLabelValues(state.String(), metrics.ResultConflict).Inc()
			return AnswerResult{}, err
		}
		s.metrics.OnboardingSteps.WithLabelValues(state.String(), metrics.ResultFailed).Inc()
		s.metrics.ErrorsTotal.WithLabelValues("persistence").Inc()
		return AnswerResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.metrics.OnboardingSteps.WithLabelValues(state.String(), metrics.ResultAccepted).Inc()

	result := AnswerResult{Prompt: step.Prompt, StateAfter: step.Next, Completed: step.Completed()}
	if !result.Completed {
		return result, nil
	}

	s.metrics.OnboardingCompleted.Inc()
	s.logger.InfoContext(ctx, "Onboarding completed", "user_id", userID)

	// The answer is already durable; summary lookups below only shape the reply.
	view, err := s.ProfileSummary(ctx, userID)
	if err != nil {
		result.TargetErr = err
		return result, nil
	}
	result.Profile = &view
	target, err := s.calculate(view)
	if err != nil {
		result.TargetErr = err
		return result, nil
	}
	result.Target = &target
	return result, nil
}
