package schedule

import (
	"sort"
	"time"

	"coachly/internal/domain"
	"coachly/internal/models"
)

// Expander turns availability rules into concrete bookable slots. It is pure
// apart from the injected clock: fixed inputs produce identical,
// identically-ordered output.
type Expander struct {
	// StepCapMinutes caps the interval between candidate starts; the
	// effective step is min(cap, duration). Candidates overlap on purpose:
	// fine-grained start offsets give bookers more choice than back-to-back
	// slots would.
	StepCapMinutes int
	Clock          domain.Clock
}

func NewExpander(stepCapMinutes int, clock domain.Clock) Expander {
	if stepCapMinutes <= 0 {
		stepCapMinutes = models.DefaultSlotStepMinutes
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return Expander{StepCapMinutes: stepCapMinutes, Clock: clock}
}

type intervalKey struct {
	start, end int64
}

// Expand generates every free slot of the requested duration for the coach
// within the inclusive date window. Bookings that no longer block (cancelled,
// completed) are ignored. A degenerate window or non-positive duration yields
// no slots; so does a rule with inverted times or an unknown timezone.
func (e Expander) Expand(coachID int64, rules []models.AvailabilityRule, windowStart, windowEnd time.Time, durationMinutes int, bookings []models.Booking) []models.Slot {
	if durationMinutes <= 0 || windowEnd.Before(windowStart) {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(e.StepCapMinutes) * time.Minute
	if duration < step {
		step = duration
	}

	busy := make([]models.Booking, 0, len(bookings))
	taken := make(map[intervalKey]struct{}, len(bookings))
	for _, b := range bookings {
		if !b.Blocks() {
			continue
		}
		busy = append(busy, b)
		taken[intervalKey{b.ScheduledStart.Unix(), b.ScheduledEnd.Unix()}] = struct{}{}
	}

	now := e.Clock.Now()
	seen := make(map[intervalKey]struct{})
	var slots []models.Slot

	iter := newOccurrenceIter(rules, windowStart, windowEnd)
	for occ, ok := iter.next(); ok; occ, ok = iter.next() {
		boundStart, boundEnd, bindOK := bindRule(occ.rule, occ.date)
		if !bindOK {
			continue
		}

		for start := boundStart; !start.Add(duration).After(boundEnd); start = start.Add(step) {
			if !start.After(now) {
				continue
			}
			end := start.Add(duration)
			key := intervalKey{start.Unix(), end.Unix()}
			if _, dup := seen[key]; dup {
				continue
			}
			// Exact-match bookings are a fast path only; the interval scan
			// below is the authoritative exclusion.
			if _, exact := taken[key]; exact {
				continue
			}
			if overlapsAny(busy, start, end) {
				continue
			}
			seen[key] = struct{}{}
			slots = append(slots, models.Slot{
				CoachID:         coachID,
				StartTime:       start,
				EndTime:         end,
				DurationMinutes: durationMinutes,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].CoachID < slots[j].CoachID
	})
	return slots
}

// bindRule anchors the rule's local start/end times to a calendar date in
// the rule's zone and converts to UTC. Violations of the rule-store boundary
// (inverted times, bad zone) bind to nothing instead of panicking.
func bindRule(rule models.AvailabilityRule, date time.Time) (time.Time, time.Time, bool) {
	loc, err := time.LoadLocation(rule.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	startH, startM, err := ParseClock(rule.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endH, endM, err := ParseClock(rule.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	y, m, d := date.Date()
	boundStart := time.Date(y, m, d, startH, startM, 0, 0, loc).UTC()
	boundEnd := time.Date(y, m, d, endH, endM, 0, 0, loc).UTC()
	if !boundStart.Before(boundEnd) {
		return time.Time{}, time.Time{}, false
	}
	return boundStart, boundEnd, true
}

func overlapsAny(busy []models.Booking, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
