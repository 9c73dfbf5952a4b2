package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite store for availability rules, bookings, and packages.
type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent booking attempts and makes the insert
	// transaction the serialization point.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

func createSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS availability_rules (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            coach_id INTEGER NOT NULL,
            day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            timezone TEXT NOT NULL,
            effective_date TEXT NOT NULL,
            end_date TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            coach_id INTEGER NOT NULL,
            client_id INTEGER NOT NULL,
            scheduled_start TEXT NOT NULL,
            scheduled_end TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'scheduled',
            package_id INTEGER,
            price_paid INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS packages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            coach_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            session_count INTEGER NOT NULL DEFAULT 1,
            price_cents INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_rules_coach_weekday ON availability_rules(coach_id, day_of_week, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_coach_start ON bookings(coach_id, scheduled_start)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_coach ON packages(coach_id)`,

		// Times are stored as fixed-width RFC3339 UTC strings, so string
		// comparison is chronological and the trigger below can enforce the
		// per-coach overlap exclusion at the storage layer. The insert is the
		// true arbiter of conflict; any application-level check is only an
		// optimization.
		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap
         BEFORE INSERT ON bookings
         WHEN NEW.status IN ('scheduled', 'confirmed') AND EXISTS (
             SELECT 1 FROM bookings
             WHERE coach_id = NEW.coach_id
               AND status IN ('scheduled', 'confirmed')
               AND scheduled_start < NEW.scheduled_end
               AND scheduled_end > NEW.scheduled_start
         )
         BEGIN
             SELECT RAISE(ABORT, 'booking overlap');
         END`,

		// A status update can also re-activate a booking. Re-entering a
		// blocking status must clear the same overlap check, otherwise a
		// cancelled booking could be confirmed into an interval that was
		// re-booked in the meantime.
		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap_update
         BEFORE UPDATE OF status ON bookings
         WHEN NEW.status IN ('scheduled', 'confirmed')
           AND OLD.status NOT IN ('scheduled', 'confirmed')
           AND EXISTS (
             SELECT 1 FROM bookings
             WHERE id != NEW.id
               AND coach_id = NEW.coach_id
               AND status IN ('scheduled', 'confirmed')
               AND scheduled_start < NEW.scheduled_end
               AND scheduled_end > NEW.scheduled_start
         )
         BEGIN
             SELECT RAISE(ABORT, 'booking overlap');
         END`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Ping checks store health.
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

const sqlTimeFormat = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlTimeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqlTimeFormat, s)
}

const dateFormat = "2006-01-02"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}
