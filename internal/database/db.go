// Package database provides database setup, models, and data access layer (Store).
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" //revive:disable:blank-imports
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" //revive:disable:blank-imports

	"github.com/edgard/kbzhubot/migrations"
)

// Supported values of the database.driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlDriverNames maps a configured driver to its database/sql driver name.
var sqlDriverNames = map[string]string{
	DriverSQLite:   "sqlite",
	DriverPostgres: "pgx",
}

// sqlitePragmas are applied by the driver to every new SQLite connection.
var sqlitePragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

// sqliteDSN appends the connection pragmas to dsn, keeping any the caller
// already set.
func sqliteDSN(dsn string) string {
	var params []string
	for _, p := range sqlitePragmas {
		name := p[:strings.IndexByte(p, '(')]
		if !strings.Contains(dsn, "_pragma="+name) {
			params = append(params, "_pragma="+p)
		}
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Options configure the connection pool.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// NewDB initializes, applies migrations, and returns a new database connection pool.
func NewDB(opts Options) (*sqlx.DB, error) {
	driverName, ok := sqlDriverNames[opts.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	dsn := opts.DSN
	if opts.Driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch opts.Driver {
	case DriverSQLite:
		// SQLite doesn't support concurrent writes. The single connection is
		// never recycled so in-memory databases survive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DriverPostgres:
		maxOpen := opts.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := ApplyMigrations(db.DB, opts.Driver); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database connected and migrations applied successfully", "driver", opts.Driver)
	return db, nil
}

// Connect calls NewDB until it succeeds, ctx is done or attempts run out,
// backing off exponentially. Unknown drivers fail immediately.
func Connect(ctx context.Context, opts Options, attempts uint) (*sqlx.DB, error) {
	if _, ok := sqlDriverNames[opts.Driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if attempts == 0 {
		attempts = 1
	}

	var db *sqlx.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = NewDB(opts)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Database not ready, retrying", "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	} else {
		slog.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded migrations for driver against db.
func ApplyMigrations(db *sql.DB, driver string) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	slog.Info("Applying database migrations...", "driver", driver)

	sub, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations for %s: %w", driver, err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	var (
		dbDriver migratedb.Driver
		dbName   string
	)
	switch driver {
	case DriverSQLite:
		dbName = "sqlite"
		dbDriver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DriverPostgres:
		dbName = "pgx5"
		dbDriver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, dbName, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database migrations applied successfully.")
	return nil
}
