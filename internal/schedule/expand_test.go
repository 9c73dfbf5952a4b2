package schedule

import (
	"testing"
	"time"

	"coachly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// Monday 2026-09-07.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func mondayRule(start, end string) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:            1,
		CoachID:       42,
		Weekday:       1,
		StartTime:     start,
		EndTime:       end,
		Timezone:      "UTC",
		EffectiveDate: monday.AddDate(0, -1, 0),
		IsActive:      true,
	}
}

func expander(now time.Time) Expander {
	return NewExpander(models.DefaultSlotStepMinutes, fixedClock{t: now})
}

func starts(slots []models.Slot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.StartTime
	}
	return out
}

func TestExpandMorningWindow(t *testing.T) {
	// 09:00-11:00 with 60 minute sessions: starts at 09:00, 09:30, 10:00.
	// 10:30 would run past the window bound; 10:00+60 landing exactly on the
	// bound is valid.
	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "11:00")}, monday, monday, 60, nil)

	require.Len(t, slots, 3)
	assert.Equal(t, []time.Time{
		monday.Add(9 * time.Hour),
		monday.Add(9*time.Hour + 30*time.Minute),
		monday.Add(10 * time.Hour),
	}, starts(slots))
	for _, s := range slots {
		assert.Equal(t, 60, s.DurationMinutes)
		assert.Equal(t, s.StartTime.Add(time.Hour), s.EndTime)
		assert.Equal(t, int64(42), s.CoachID)
	}
}

func TestExpandExcludesOverlappingBooking(t *testing.T) {
	// An existing 10:00-11:00 booking kills both the exact 10:00 slot and
	// the 09:30 slot that overlaps it; only 09:00 survives.
	booked := []models.Booking{{
		CoachID:        42,
		ScheduledStart: monday.Add(10 * time.Hour),
		ScheduledEnd:   monday.Add(11 * time.Hour),
		Status:         models.StatusConfirmed,
	}}

	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "11:00")}, monday, monday, 60, booked)

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].StartTime)
}

func TestExpandIgnoresNonBlockingBookings(t *testing.T) {
	booked := []models.Booking{{
		CoachID:        42,
		ScheduledStart: monday.Add(10 * time.Hour),
		ScheduledEnd:   monday.Add(11 * time.Hour),
		Status:         models.StatusCancelled,
	}}

	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "11:00")}, monday, monday, 60, booked)
	assert.Len(t, slots, 3)
}

func TestExpandSkipsExpiredRuleDates(t *testing.T) {
	end := monday.AddDate(0, 0, -3)
	rule := mondayRule("09:00", "11:00")
	rule.EndDate = &end

	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{rule}, monday, monday, 60, nil)
	assert.Empty(t, slots)
}

func TestExpandExcludesPastSlots(t *testing.T) {
	// Clock at 09:45: the 09:00 and 09:30 starts are gone, and a start
	// exactly at "now" would be excluded too (strictly-in-future rule).
	e := expander(monday.Add(9*time.Hour + 45*time.Minute))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "11:00")}, monday, monday, 60, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(10*time.Hour), slots[0].StartTime)
}

func TestExpandStartAtNowExcluded(t *testing.T) {
	e := expander(monday.Add(10 * time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "11:00")}, monday, monday, 60, nil)
	assert.Empty(t, slots)
}

func TestExpandStepFollowsShortDurations(t *testing.T) {
	// duration 15 < cap 30, so candidates step every 15 minutes.
	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{mondayRule("09:00", "10:00")}, monday, monday, 15, nil)

	require.Len(t, slots, 4)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].StartTime)
	assert.Equal(t, monday.Add(9*time.Hour+45*time.Minute), slots[3].StartTime)
}

func TestExpandTimezoneBinding(t *testing.T) {
	rule := mondayRule("09:00", "10:00")
	rule.Timezone = "America/New_York"

	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{rule}, monday, monday, 60, nil)

	// 09:00 EDT == 13:00 UTC on 2026-09-07.
	require.Len(t, slots, 1)
	assert.Equal(t, monday.Add(13*time.Hour), slots[0].StartTime)
}

func TestExpandDefensiveRuleHandling(t *testing.T) {
	e := expander(monday.Add(-time.Hour))

	inverted := mondayRule("11:00", "09:00")
	assert.Empty(t, e.Expand(42, []models.AvailabilityRule{inverted}, monday, monday, 60, nil))

	badZone := mondayRule("09:00", "11:00")
	badZone.Timezone = "Mars/Olympus"
	assert.Empty(t, e.Expand(42, []models.AvailabilityRule{badZone}, monday, monday, 60, nil))

	badClock := mondayRule("9am", "11:00")
	assert.Empty(t, e.Expand(42, []models.AvailabilityRule{badClock}, monday, monday, 60, nil))

	inactive := mondayRule("09:00", "11:00")
	inactive.IsActive = false
	assert.Empty(t, e.Expand(42, []models.AvailabilityRule{inactive}, monday, monday, 60, nil))
}

func TestExpandDegenerateInputs(t *testing.T) {
	e := expander(monday.Add(-time.Hour))
	rules := []models.AvailabilityRule{mondayRule("09:00", "11:00")}

	assert.Empty(t, e.Expand(42, rules, monday, monday.AddDate(0, 0, -1), 60, nil), "inverted window")
	assert.Empty(t, e.Expand(42, rules, monday, monday, 0, nil), "zero duration")
	assert.Empty(t, e.Expand(42, nil, monday, monday, 60, nil), "no rules")
}

func TestExpandDeduplicatesOverlappingRules(t *testing.T) {
	// Two rules covering the same window must not produce duplicate slots.
	a := mondayRule("09:00", "11:00")
	b := mondayRule("09:00", "10:00")
	b.ID = 2

	e := expander(monday.Add(-time.Hour))
	slots := e.Expand(42, []models.AvailabilityRule{a, b}, monday, monday, 60, nil)
	assert.Len(t, slots, 3)
}

func TestExpandDeterministicOrdering(t *testing.T) {
	rules := []models.AvailabilityRule{mondayRule("09:00", "11:00")}
	tuesday := monday.AddDate(0, 0, 1)
	tues := mondayRule("08:00", "09:30")
	tues.Weekday = 2
	rules = append(rules, tues)

	e := expander(monday.Add(-time.Hour))
	first := e.Expand(42, rules, monday, tuesday, 60, nil)
	second := e.Expand(42, rules, monday, tuesday, 60, nil)

	require.Equal(t, first, second, "identical inputs must yield identical output")
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].StartTime.Before(first[i-1].StartTime))
	}
}

func TestWeekdays(t *testing.T) {
	assert.Equal(t, []int{1}, Weekdays(monday, monday))
	assert.Equal(t, []int{1, 2, 3}, Weekdays(monday, monday.AddDate(0, 0, 2)))
	assert.Len(t, Weekdays(monday, monday.AddDate(0, 0, 30)), 7)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "24:00", "09:60", "nine", "9"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
