package service

import (
	"context"
	"fmt"
	"time"

	"coachly/internal/domain"
	"coachly/internal/metrics"
	"coachly/internal/models"
	"coachly/internal/schedule"

	"github.com/rs/zerolog"
)

// SlotService derives bookable slots from availability rules and existing
// bookings. It never mutates shared state and is safe under unbounded read
// concurrency.
type SlotService struct {
	rules         domain.RuleStore
	bookings      domain.BookingStore
	expander      schedule.Expander
	maxWindowDays int
	logger        *zerolog.Logger
}

func NewSlotService(rules domain.RuleStore, bookings domain.BookingStore, clock domain.Clock, stepCapMinutes, maxWindowDays int, logger *zerolog.Logger) *SlotService {
	if maxWindowDays <= 0 {
		maxWindowDays = models.DefaultMaxWindowDays
	}
	return &SlotService{
		rules:         rules,
		bookings:      bookings,
		expander:      schedule.NewExpander(stepCapMinutes, clock),
		maxWindowDays: maxWindowDays,
		logger:        logger,
	}
}

// ListSlots returns every free slot of the requested duration in the
// inclusive date window, sorted by start time. Absence of availability is an
// empty result, not an error.
func (s *SlotService) ListSlots(ctx context.Context, coachID int64, windowStart, windowEnd time.Time, durationMinutes int) ([]models.Slot, error) {
	if coachID <= 0 {
		return nil, fmt.Errorf("%w: coach id is required", ErrInvalidInput)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	windowStart = models.DateOnly(windowStart)
	windowEnd = models.DateOnly(windowEnd)
	if windowEnd.Before(windowStart) {
		return []models.Slot{}, nil
	}
	if windowEnd.Sub(windowStart) > time.Duration(s.maxWindowDays)*24*time.Hour {
		return nil, fmt.Errorf("%w: max %d days", ErrWindowTooLarge, s.maxWindowDays)
	}

	rules, err := s.rules.GetActiveRules(ctx, coachID, schedule.Weekdays(windowStart, windowEnd), windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch availability rules: %w", err)
	}
	if len(rules) == 0 {
		return []models.Slot{}, nil
	}

	// Rule times bind in their own timezone, so the window's UTC instants
	// can shift by up to a day in either direction; pad the booking fetch
	// accordingly. The expander re-checks each candidate precisely.
	busyFrom := windowStart.AddDate(0, 0, -1)
	busyTo := windowEnd.AddDate(0, 0, 2)
	busy, err := s.bookings.GetBookingsOverlapping(ctx, coachID, busyFrom, busyTo, models.ActiveBookingStatuses)
	if err != nil {
		return nil, fmt.Errorf("fetch existing bookings: %w", err)
	}

	slots := s.expander.Expand(coachID, rules, windowStart, windowEnd, durationMinutes, busy)
	if slots == nil {
		slots = []models.Slot{}
	}

	metrics.AddSlotsGenerated(len(slots))
	s.logger.Debug().
		Int64("coach_id", coachID).
		Time("window_start", windowStart).
		Time("window_end", windowEnd).
		Int("duration_minutes", durationMinutes).
		Int("slots", len(slots)).
		Msg("slots generated")

	return slots, nil
}
