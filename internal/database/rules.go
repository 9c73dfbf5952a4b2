package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coachly/internal/models"
	"coachly/internal/schedule"
)

// CreateRule validates and persists an availability rule. Malformed rules
// are rejected here so the slot generator can assume clean inputs.
func (db *DB) CreateRule(ctx context.Context, rule *models.AvailabilityRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	var endDate interface{}
	if rule.EndDate != nil {
		endDate = formatDate(*rule.EndDate)
	}

	query := `INSERT INTO availability_rules (
				coach_id, day_of_week, start_time, end_time, timezone,
				effective_date, end_date, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		rule.CoachID,
		rule.Weekday,
		rule.StartTime,
		rule.EndTime,
		rule.Timezone,
		formatDate(rule.EffectiveDate),
		endDate,
		rule.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rule.ID = id
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

func validateRule(rule *models.AvailabilityRule) error {
	if rule.CoachID <= 0 {
		return fmt.Errorf("%w: coach id is required", ErrInvalidRule)
	}
	if rule.Weekday < 0 || rule.Weekday > 6 {
		return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidRule, rule.Weekday)
	}
	start, err := schedule.ClockMinutes(rule.StartTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	end, err := schedule.ClockMinutes(rule.EndTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidRule)
	}
	if _, err := time.LoadLocation(rule.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidRule, rule.Timezone)
	}
	if rule.EffectiveDate.IsZero() {
		return fmt.Errorf("%w: effective_date is required", ErrInvalidRule)
	}
	if rule.EndDate != nil && rule.EndDate.Before(rule.EffectiveDate) {
		return fmt.Errorf("%w: end_date precedes effective_date", ErrInvalidRule)
	}
	return nil
}

// GetActiveRules returns active rules for the coach whose weekday is in the
// set and whose effective range intersects [from, to]. An open-ended
// end_date means no upper bound.
func (db *DB) GetActiveRules(ctx context.Context, coachID int64, weekdays []int, from, to time.Time) ([]models.AvailabilityRule, error) {
	if len(weekdays) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(weekdays)), ",")
	query := fmt.Sprintf(`SELECT id, coach_id, day_of_week, start_time, end_time, timezone,
	                 effective_date, end_date, is_active, created_at, updated_at
	          FROM availability_rules
	          WHERE coach_id = ? AND is_active = 1
	            AND day_of_week IN (%s)
	            AND effective_date <= ?
	            AND (end_date IS NULL OR end_date >= ?)
	          ORDER BY day_of_week, start_time`, placeholders)

	args := make([]interface{}, 0, len(weekdays)+3)
	args = append(args, coachID)
	for _, wd := range weekdays {
		args = append(args, wd)
	}
	args = append(args, formatDate(to), formatDate(from))

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get active rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AvailabilityRule
	for rows.Next() {
		var r models.AvailabilityRule
		var effStr string
		var endStr *string
		err := rows.Scan(
			&r.ID, &r.CoachID, &r.Weekday, &r.StartTime, &r.EndTime, &r.Timezone,
			&effStr, &endStr, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.EffectiveDate, err = parseDate(effStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse effective_date %s: %w", effStr, err)
		}
		if endStr != nil {
			end, err := parseDate(*endStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_date %s: %w", *endStr, err)
			}
			r.EndDate = &end
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeactivateRule soft-disables a rule; inactive rules produce no slots.
func (db *DB) DeactivateRule(ctx context.Context, id int64) error {
	query := `UPDATE availability_rules SET is_active = 0, updated_at = ? WHERE id = ?`
	_, err := db.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
