package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrStateConflict is returned when the customer's onboarding state no
	// longer matches the expected value, typically because a duplicate
	// delivery of the same answer already advanced it.
	ErrStateConflict = errors.New("onboarding state changed concurrently")
	// ErrCustomerNotFound is returned by writes keyed on an unknown Telegram ID.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProfileNotFound is returned when a customer has no profile record.
	ErrProfileNotFound = errors.New("profile record not found")
	// ErrDuplicateMessage is returned when a write carries a Telegram message
	// ID that was already applied for the customer. Nothing is written.
	ErrDuplicateMessage = errors.New("message already applied")
)

// profileColumns whitelists the columns ApplyAnswer may write.
var profileColumns = map[string]bool{
	"goal":           true,
	"gender":         true,
	"birth_year":     true,
	"activity_level": true,
	"height_cm":      true,
	"weight_kg":      true,
}

// Store defines the interface for database operations.
// Methods should accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// StartOnboarding upserts the customer, appends an empty profile record
	// and sets state to initialState, all in one transaction. A non-zero
	// customer.LastMessageID that is not newer than the stored one yields
	// ErrDuplicateMessage.
	StartOnboarding(ctx context.Context, customer *Customer, initialState string) error

	// GetCustomer retrieves a customer by Telegram ID. Returns nil, nil if not found.
	GetCustomer(ctx context.Context, tgID int64) (*Customer, error)

	// GetLatestProfile retrieves the newest profile record. Returns nil, nil if not found.
	GetLatestProfile(ctx context.Context, tgID int64) (*ProfileRecord, error)

	// ApplyAnswer writes one profile column of the latest record and moves
	// state from expected to next in one transaction. An empty next clears
	// the state. Returns ErrStateConflict when state is not expected and
	// ErrDuplicateMessage when a non-zero messageID was already applied.
	ApplyAnswer(ctx context.Context, tgID, messageID int64, expected, next, column string, value any) error

	// AppendMeal inserts a meal for the customer and sets its ID and CustomerID.
	// A meal whose TgMessageID was already applied yields ErrDuplicateMessage.
	AppendMeal(ctx context.Context, tgID int64, meal *Meal) error

	// SumMeals aggregates meals logged within [start, end], both inclusive.
	SumMeals(ctx context.Context, tgID int64, start, end time.Time) (MealTotals, error)

	// ListMeals returns meals logged within [start, end] ordered by time.
	ListMeals(ctx context.Context, tgID int64, start, end time.Time) ([]Meal, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance vacuums the database. VACUUM must run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	stmt := "VACUUM;"
	if s.db.DriverName() == sqlDriverNames[DriverPostgres] {
		stmt = "VACUUM ANALYZE;"
	}

	s.logger.InfoContext(ctx, "Starting database maintenance", "statement", stmt)
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to run %q: %w", stmt, err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *sqlxStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "op", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "op", op, "error", rollbackErr)
				}
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "op", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil
	return nil
}

// StartOnboarding upserts the customer and opens a new profile record.
func (s *sqlxStore) StartOnboarding(ctx context.Context, customer *Customer, initialState string) error {
	if customer == nil {
		return fmt.Errorf("cannot start onboarding for nil customer")
	}
	if customer.TgID == 0 {
		return fmt.Errorf("customer must have a non-zero tg_id")
	}

	now := ToMillis(s.now())
	customer.State = sql.NullString{String: initialState, Valid: initialState != ""}
	customer.UpdatedAt = now
	if customer.CreatedAt == 0 {
		customer.CreatedAt = now
	}

	err := s.withTx(ctx, "start_onboarding", func(tx *sqlx.Tx) error {
		// The update is skipped for a message that is not newer than the last
		// applied one, and RETURNING then yields no row.
		upsert := tx.Rebind(`
            INSERT INTO customers (tg_id, first_name, last_name, login, state, last_message_id, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (tg_id) DO UPDATE SET
                first_name = excluded.first_name,
                last_name = excluded.last_name,
                login = excluded.login,
                state = excluded.state,
                last_message_id = CASE
                    WHEN excluded.last_message_id > customers.last_message_id THEN excluded.last_message_id
                    ELSE customers.last_message_id
                END,
                updated_at = excluded.updated_at
            WHERE excluded.last_message_id = 0 OR customers.last_message_id < excluded.last_message_id
            RETURNING id, created_at;
        `)
		row := tx.QueryRowxContext(ctx, upsert,
			customer.TgID, customer.FirstName, customer.LastName, customer.Login,
			customer.State, customer.LastMessageID, customer.CreatedAt, customer.UpdatedAt)
		if err := row.Scan(&customer.ID, &customer.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDuplicateMessage
			}
			return fmt.Errorf("failed to upsert customer %d: %w", customer.TgID, err)
		}

		insert := tx.Rebind(`INSERT INTO profile_records (customer_id, created_at, updated_at) VALUES (?, ?, ?);`)
		if _, err := tx.ExecContext(ctx, insert, customer.ID, now, now); err != nil {
			return fmt.Errorf("failed to create profile record for customer %d: %w", customer.TgID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateMessage) {
			s.logger.InfoContext(ctx, "Skipping duplicate onboarding start", "tg_id", customer.TgID, "message_id", customer.LastMessageID)
			return err
		}
		s.logger.ErrorContext(ctx, "Error starting onboarding", "tg_id", customer.TgID, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Onboarding started", "tg_id", customer.TgID, "customer_id", customer.ID)
	return nil
}

// GetCustomer retrieves a customer by Telegram ID.
func (s *sqlxStore) GetCustomer(ctx context.Context, tgID int64) (*Customer, error) {
	var c Customer
	query := s.db.Rebind(`
        SELECT id, tg_id, first_name, last_name, login, state, last_message_id, created_at, updated_at
        FROM customers
        WHERE tg_id = ?;
    `)
	if err := s.db.GetContext(ctx, &c, query, tgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer %d: %w", tgID, err)
	}
	return &c, nil
}

// GetLatestProfile retrieves the newest profile record of a customer.
func (s *sqlxStore) GetLatestProfile(ctx context.Context, tgID int64) (*ProfileRecord, error) {
	var p ProfileRecord
	query := s.db.Rebind(`
        SELECT p.id, p.customer_id, p.goal, p.gender, p.birth_year, p.activity_level,
               p.height_cm, p.weight_kg, p.created_at, p.updated_at
        FROM profile_records p
        JOIN customers c ON c.id = p.customer_id
        WHERE c.tg_id = ?
        ORDER BY p.id DESC
        LIMIT 1;
    `)
	if err := s.db.GetContext(ctx, &p, query, tgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for customer %d: %w", tgID, err)
	}
	return &p, nil
}

// ApplyAnswer stores one answer and advances the state atomically.
func (s *sqlxStore) ApplyAnswer(ctx context.Context, tgID, messageID int64, expected, next, column string, value any) error {
	if !profileColumns[column] {
		return fmt.Errorf("column %q is not a profile field", column)
	}
	if expected == "" {
		return fmt.Errorf("expected state must not be empty")
	}

	now := ToMillis(s.now())
	nextState := sql.NullString{String: next, Valid: next != ""}

	err := s.withTx(ctx, "apply_answer", func(tx *sqlx.Tx) error {
		advance := `UPDATE customers SET state = ?, updated_at = ? WHERE tg_id = ? AND state = ?;`
		args := []any{nextState, now, tgID, expected}
		if messageID != 0 {
			advance = `
                UPDATE customers SET state = ?, last_message_id = ?, updated_at = ?
                WHERE tg_id = ? AND state = ? AND last_message_id < ?;
            `
			args = []any{nextState, messageID, now, tgID, expected, messageID}
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(advance), args...)
		if err != nil {
			return fmt.Errorf("failed to advance state for customer %d: %w", tgID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return s.classifyMiss(ctx, tx, tgID, messageID)
		}

		// column is whitelisted above.
		update := tx.Rebind(fmt.Sprintf(`
            UPDATE profile_records SET %s = ?, updated_at = ?
            WHERE id = (
                SELECT MAX(p.id) FROM profile_records p
                JOIN customers c ON c.id = p.customer_id
                WHERE c.tg_id = ?
            );
        `, column))
		result, err = tx.ExecContext(ctx, update, value, now, tgID)
		if err != nil {
			return fmt.Errorf("failed to save %s for customer %d: %w", column, tgID, err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateMessage):
			s.logger.InfoContext(ctx, "Skipping duplicate answer", "tg_id", tgID, "message_id", messageID)
		case errors.Is(err, ErrStateConflict):
			s.logger.WarnContext(ctx, "State conflict while applying answer", "tg_id", tgID, "expected", expected)
		default:
			s.logger.ErrorContext(ctx, "Error applying answer", "tg_id", tgID, "column", column, "error", err)
		}
		return err
	}

	s.logger.DebugContext(ctx, "Answer applied", "tg_id", tgID, "column", column, "from", expected, "to", next)
	return nil
}

// classifyMiss explains a conditional customer update that matched no row.
func (s *sqlxStore) classifyMiss(ctx context.Context, tx *sqlx.Tx, tgID, messageID int64) error {
	if messageID == 0 {
		return ErrStateConflict
	}
	var last int64
	query := tx.Rebind(`SELECT last_message_id FROM customers WHERE tg_id = ?;`)
	if err := tx.GetContext(ctx, &last, query, tgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStateConflict
		}
		return fmt.Errorf("failed to read last message for customer %d: %w", tgID, err)
	}
	if last >= messageID {
		return ErrDuplicateMessage
	}
	return ErrStateConflict
}

// AppendMeal inserts a meal entry for the customer.
func (s *sqlxStore) AppendMeal(ctx context.Context, tgID int64, meal *Meal) error {
	if meal == nil {
		return fmt.Errorf("cannot save nil meal")
	}
	if meal.FoodName == "" {
		return fmt.Errorf("meal must have a non-empty food name")
	}
	if meal.LoggedAt == 0 {
		return fmt.Errorf("meal must have a non-zero logged_at")
	}
	meal.CreatedAt = ToMillis(s.now())

	err := s.withTx(ctx, "append_meal", func(tx *sqlx.Tx) error {
		var c Customer
		lookup := tx.Rebind(`SELECT id, last_message_id FROM customers WHERE tg_id = ?;`)
		if err := tx.GetContext(ctx, &c, lookup, tgID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to resolve customer %d: %w", tgID, err)
		}
		meal.CustomerID = c.ID
		if meal.TgMessageID.Valid && c.Seen(meal.TgMessageID.Int64) {
			return ErrDuplicateMessage
		}

		// The unique (customer_id, tg_message_id) index catches a duplicate
		// written concurrently by another instance.
		insert := tx.Rebind(`
            INSERT INTO meals (customer_id, tg_message_id, food_name, grams, calories, protein_g, fat_g, carbs_g, logged_at, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (customer_id, tg_message_id) DO NOTHING
            RETURNING id;
        `)
		row := tx.QueryRowxContext(ctx, insert,
			meal.CustomerID, meal.TgMessageID, meal.FoodName, meal.Grams, meal.Calories,
			meal.ProteinG, meal.FatG, meal.CarbsG, meal.LoggedAt, meal.CreatedAt)
		if err := row.Scan(&meal.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDuplicateMessage
			}
			return fmt.Errorf("failed to save meal for customer %d: %w", tgID, err)
		}

		if meal.TgMessageID.Valid {
			mark := tx.Rebind(`UPDATE customers SET last_message_id = ? WHERE id = ? AND last_message_id < ?;`)
			if _, err := tx.ExecContext(ctx, mark, meal.TgMessageID.Int64, c.ID, meal.TgMessageID.Int64); err != nil {
				return fmt.Errorf("failed to record message for customer %d: %w", tgID, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateMessage) {
			s.logger.InfoContext(ctx, "Skipping duplicate meal", "tg_id", tgID, "message_id", meal.TgMessageID.Int64)
			return err
		}
		s.logger.ErrorContext(ctx, "Error saving meal", "tg_id", tgID, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Meal saved", "tg_id", tgID, "meal_id", meal.ID, "calories", meal.Calories)
	return nil
}

// SumMeals aggregates the customer's meals within [start, end].
func (s *sqlxStore) SumMeals(ctx context.Context, tgID int64, start, end time.Time) (MealTotals, error) {
	var totals MealTotals
	query := s.db.Rebind(`
        SELECT COALESCE(SUM(m.calories), 0) AS calories,
               COALESCE(SUM(m.protein_g), 0) AS protein_g,
               COALESCE(SUM(m.fat_g), 0) AS fat_g,
               COALESCE(SUM(m.carbs_g), 0) AS carbs_g,
               COUNT(m.id) AS meal_count
        FROM meals m
        JOIN customers c ON c.id = m.customer_id
        WHERE c.tg_id = ? AND m.logged_at >= ? AND m.logged_at <= ?;
    `)
	if err := s.db.GetContext(ctx, &totals, query, tgID, ToMillis(start), ToMillis(end)); err != nil {
		return MealTotals{}, fmt.Errorf("failed to sum meals for customer %d: %w", tgID, err)
	}
	return totals, nil
}

// ListMeals returns the customer's meals within [start, end].
func (s *sqlxStore) ListMeals(ctx context.Context, tgID int64, start, end time.Time) ([]Meal, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	meals := []Meal{}
	query := s.db.Rebind(`
        SELECT m.id, m.customer_id, m.tg_message_id, m.food_name, m.grams, m.calories, m.protein_g, m.fat_g, m.carbs_g,
               m.logged_at, m.created_at
        FROM meals m
        JOIN customers c ON c.id = m.customer_id
        WHERE c.tg_id = ? AND m.logged_at >= ? AND m.logged_at <= ?
        ORDER BY m.logged_at, m.id;
    `)
	if err := s.db.SelectContext(ctx, &meals, query, tgID, ToMillis(start), ToMillis(end)); err != nil {
		return nil, fmt.Errorf("failed to list meals for customer %d: %w", tgID, err)
	}
	return meals, nil
}
