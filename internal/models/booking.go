package models

import "time"

type Booking struct {
	ID             int64     `json:"id"`
	CoachID        int64     `json:"coach_id"`
	ClientID       int64     `json:"client_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         string    `json:"status"` // scheduled, confirmed, completed, cancelled
	PackageID      *int64    `json:"package_id,omitempty"`
	PricePaid      int64     `json:"price_paid"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int64     `json:"version"`
}

// Blocks reports whether the booking occupies its time range for conflict
// purposes. Cancelled and completed bookings free the interval.
func (b Booking) Blocks() bool {
	return b.Status == StatusScheduled || b.Status == StatusConfirmed
}

// Overlaps checks half-open interval intersection with [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.ScheduledStart.Before(end) && b.ScheduledEnd.After(start)
}
