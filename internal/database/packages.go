package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coachly/internal/models"
)

func (db *DB) CreatePackage(ctx context.Context, pkg *models.Package) error {
	query := `INSERT INTO packages (
				coach_id, name, session_count, price_cents, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		pkg.CoachID,
		pkg.Name,
		pkg.SessionCount,
		pkg.PriceCents,
		pkg.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	pkg.ID = id
	pkg.CreatedAt = now
	pkg.UpdatedAt = now
	return nil
}

// GetPackage resolves a package for a booking. A package that is missing,
// soft-disabled, or owned by a different coach is equally ErrPackageNotFound
// to the caller.
func (db *DB) GetPackage(ctx context.Context, id, coachID int64) (*models.Package, error) {
	query := `SELECT id, coach_id, name, session_count, price_cents, is_active, created_at, updated_at
	          FROM packages WHERE id = ?`

	var pkg models.Package
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID, &pkg.CoachID, &pkg.Name, &pkg.SessionCount,
		&pkg.PriceCents, &pkg.IsActive, &pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	if !pkg.IsActive || pkg.CoachID != coachID {
		return nil, ErrPackageNotFound
	}
	return &pkg, nil
}
