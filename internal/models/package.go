package models

import "time"

// Package is a coach-owned session bundle. PriceCents is the per-session
// price charged when a booking references the package.
type Package struct {
	ID           int64     `json:"id"`
	CoachID      int64     `json:"coach_id"`
	Name         string    `json:"name"`
	SessionCount int       `json:"session_count"`
	PriceCents   int64     `json:"price_cents"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
