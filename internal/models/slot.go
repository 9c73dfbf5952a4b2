package models

import "time"

// Slot is a concrete bookable interval derived from availability rules minus
// existing bookings. Slots are never persisted; identity is the
// (coach_id, start_time, end_time) tuple.
type Slot struct {
	CoachID         int64     `json:"coach_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}
