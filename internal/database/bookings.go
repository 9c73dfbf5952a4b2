package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"coachly/internal/models"
)

// InsertBooking persists a reservation. The bookings_no_overlap trigger is
// the authoritative conflict arbiter: a losing concurrent insert surfaces as
// ErrSlotUnavailable. The in-transaction count is only a fast pre-check.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	queryCount := `SELECT COUNT(*) FROM bookings
	               WHERE coach_id = ? AND status IN (?, ?)
	                 AND scheduled_start < ? AND scheduled_end > ?`
	err = tx.QueryRowContext(ctx, queryCount,
		booking.CoachID, models.StatusScheduled, models.StatusConfirmed,
		formatTime(booking.ScheduledEnd), formatTime(booking.ScheduledStart),
	).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check conflicts in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotUnavailable
	}

	queryInsert := `INSERT INTO bookings (
				coach_id, client_id, scheduled_start, scheduled_end,
				status, package_id, price_paid, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.CoachID,
		booking.ClientID,
		formatTime(booking.ScheduledStart),
		formatTime(booking.ScheduledEnd),
		booking.Status,
		booking.PackageID,
		booking.PricePaid,
		now,
		now,
		1,
	)
	if err != nil {
		if isOverlapViolation(err) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func isOverlapViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "booking overlap")
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT id, coach_id, client_id, scheduled_start, scheduled_end,
	                 status, package_id, price_paid, created_at, updated_at, version
	          FROM bookings WHERE id = ?`

	booking, err := scanBooking(db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingsOverlapping returns bookings in the given statuses whose
// [scheduled_start, scheduled_end) interval intersects [start, end).
func (db *DB) GetBookingsOverlapping(ctx context.Context, coachID int64, start, end time.Time, statuses []string) ([]models.Booking, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveBookingStatuses
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := fmt.Sprintf(`SELECT id, coach_id, client_id, scheduled_start, scheduled_end,
	                 status, package_id, price_paid, created_at, updated_at, version
	          FROM bookings
	          WHERE coach_id = ? AND status IN (%s)
	            AND scheduled_start < ? AND scheduled_end > ?
	          ORDER BY scheduled_start`, placeholders)

	args := make([]interface{}, 0, len(statuses)+3)
	args = append(args, coachID)
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, formatTime(end), formatTime(start))

	return db.queryBookings(ctx, query, args...)
}

// GetCoachBookings returns all bookings for a coach whose start falls in
// [from, to), regardless of status.
func (db *DB) GetCoachBookings(ctx context.Context, coachID int64, from, to time.Time) ([]models.Booking, error) {
	query := `SELECT id, coach_id, client_id, scheduled_start, scheduled_end,
	                 status, package_id, price_paid, created_at, updated_at, version
	          FROM bookings
	          WHERE coach_id = ? AND scheduled_start >= ? AND scheduled_start < ?
	          ORDER BY scheduled_start`
	return db.queryBookings(ctx, query, coachID, formatTime(from), formatTime(to))
}

// UpdateBookingStatusWithVersion applies a status transition guarded by
// optimistic locking; a stale version returns ErrConcurrentModification.
// Moving back into a blocking status re-runs the overlap check and can
// return ErrSlotUnavailable.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		if isOverlapViolation(err) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var startStr, endStr string
	err := row.Scan(
		&b.ID, &b.CoachID, &b.ClientID, &startStr, &endStr,
		&b.Status, &b.PackageID, &b.PricePaid, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if b.ScheduledStart, err = parseTime(startStr); err != nil {
		return nil, fmt.Errorf("failed to parse scheduled_start %s: %w", startStr, err)
	}
	if b.ScheduledEnd, err = parseTime(endStr); err != nil {
		return nil, fmt.Errorf("failed to parse scheduled_end %s: %w", endStr, err)
	}
	return &b, nil
}
