package schedule

import (
	"time"

	"coachly/internal/models"
)

// occurrence is a rule bound to a single calendar date.
type occurrence struct {
	date time.Time
	rule models.AvailabilityRule
}

// occurrenceIter walks (date, rule) pairs over a window lazily, day by day.
// Cost is O(days × matching rules); the iterator never looks past windowEnd.
type occurrenceIter struct {
	rules []models.AvailabilityRule
	cur   time.Time
	end   time.Time
	idx   int
}

func newOccurrenceIter(rules []models.AvailabilityRule, windowStart, windowEnd time.Time) *occurrenceIter {
	return &occurrenceIter{
		rules: rules,
		cur:   models.DateOnly(windowStart),
		end:   models.DateOnly(windowEnd),
	}
}

// next returns the following occurrence in date order. Rules on the same
// date come out in input order.
func (it *occurrenceIter) next() (occurrence, bool) {
	for !it.cur.After(it.end) {
		for it.idx < len(it.rules) {
			rule := it.rules[it.idx]
			it.idx++
			if !rule.IsActive {
				continue
			}
			if int(it.cur.Weekday()) != rule.Weekday {
				continue
			}
			if !rule.AppliesOn(it.cur) {
				continue
			}
			return occurrence{date: it.cur, rule: rule}, true
		}
		it.cur = it.cur.AddDate(0, 0, 1)
		it.idx = 0
	}
	return occurrence{}, false
}

// Weekdays returns the distinct weekdays (0 = Sunday) present in the
// inclusive date window, capped at seven.
func Weekdays(windowStart, windowEnd time.Time) []int {
	start := models.DateOnly(windowStart)
	end := models.DateOnly(windowEnd)

	seen := make(map[int]bool, 7)
	var days []int
	for d := start; !d.After(end) && len(days) < 7; d = d.AddDate(0, 0, 1) {
		wd := int(d.Weekday())
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	return days
}
