package database

import (
	"database/sql"
	"time"
)

// Customer is a Telegram user known to the bot. State holds the onboarding
// step; NULL means idle. LastMessageID is the newest Telegram message that
// changed the customer's data; zero when none has been recorded.
type Customer struct {
	ID            int64          `db:"id"`
	TgID          int64          `db:"tg_id"`
	FirstName     string         `db:"first_name"`
	LastName      string         `db:"last_name"`
	Login         string         `db:"login"`
	State         sql.NullString `db:"state"`
	LastMessageID int64          `db:"last_message_id"`
	CreatedAt     int64          `db:"created_at"`
	UpdatedAt     int64          `db:"updated_at"`
}

// Seen reports whether messageID was already applied. Zero is never seen.
func (c *Customer) Seen(messageID int64) bool {
	return messageID != 0 && c.LastMessageID >= messageID
}

// ProfileRecord is one questionnaire run. A new record is appended on every
// restart and only the latest one is read.
type ProfileRecord struct {
	ID            int64           `db:"id"`
	CustomerID    int64           `db:"customer_id"`
	Goal          sql.NullString  `db:"goal"`
	Gender        sql.NullString  `db:"gender"`
	BirthYear     sql.NullInt64   `db:"birth_year"`
	ActivityLevel sql.NullString  `db:"activity_level"`
	HeightCm      sql.NullInt64   `db:"height_cm"`
	WeightKg      sql.NullFloat64 `db:"weight_kg"`
	CreatedAt     int64           `db:"created_at"`
	UpdatedAt     int64           `db:"updated_at"`
}

// Meal is an append-only food log entry. LoggedAt is unix milliseconds.
// TgMessageID is unique per customer when set.
type Meal struct {
	ID          int64         `db:"id"`
	CustomerID  int64         `db:"customer_id"`
	TgMessageID sql.NullInt64 `db:"tg_message_id"`
	FoodName    string        `db:"food_name"`
	Grams       sql.NullInt64 `db:"grams"`
	Calories    int           `db:"calories"`
	ProteinG    float64       `db:"protein_g"`
	FatG        float64       `db:"fat_g"`
	CarbsG      float64       `db:"carbs_g"`
	LoggedAt    int64         `db:"logged_at"`
	CreatedAt   int64         `db:"created_at"`
}

// MealTotals is the aggregate of meals over a time range.
type MealTotals struct {
	Calories int64   `db:"calories"`
	ProteinG float64 `db:"protein_g"`
	FatG     float64 `db:"fat_g"`
	CarbsG   float64 `db:"carbs_g"`
	Count    int64   `db:"meal_count"`
}

// ToMillis converts t to the stored timestamp representation.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a stored timestamp back to time in UTC.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
