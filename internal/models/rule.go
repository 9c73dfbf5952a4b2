package models

import "time"

// AvailabilityRule is a recurring weekly availability window for a coach.
// StartTime and EndTime are local times of day ("HH:MM") interpreted in the
// rule's timezone when bound to a concrete calendar date.
type AvailabilityRule struct {
	ID            int64      `json:"id"`
	CoachID       int64      `json:"coach_id"`
	Weekday       int        `json:"day_of_week"` // 0 = Sunday
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Timezone      string     `json:"timezone"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndDate       *time.Time `json:"end_date,omitempty"` // inclusive; nil = open-ended
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AppliesOn reports whether the rule is in effect on the given calendar date.
// The date is compared at day granularity; the weekday match is the caller's
// concern.
func (r AvailabilityRule) AppliesOn(date time.Time) bool {
	day := DateOnly(date)
	if day.Before(DateOnly(r.EffectiveDate)) {
		return false
	}
	if r.EndDate != nil && day.After(DateOnly(*r.EndDate)) {
		return false
	}
	return true
}

// DateOnly truncates a timestamp to its calendar date in the timestamp's
// own zone, anchored at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
