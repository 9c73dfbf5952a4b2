package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"coachly/internal/database"
	"coachly/internal/domain"
	"coachly/internal/events"
	"coachly/internal/metrics"
	"coachly/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService claims slots against the storage-layer overlap exclusion.
// Coordination between concurrent bookers happens entirely in the booking
// store; the service itself holds no cross-request state.
type BookingService struct {
	store          domain.Store
	eventBus       domain.EventPublisher
	payments       domain.PaymentQueue
	clock          domain.Clock
	feePercent     float64
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, payments domain.PaymentQueue, clock domain.Clock, feePercent float64, maxAdvanceDays int, logger *zerolog.Logger) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		store:          store,
		eventBus:       eventBus,
		payments:       payments,
		clock:          clock,
		feePercent:     feePercent,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// Book re-validates the chosen slot and atomically reserves it. The overlap
// pre-check only shortens the error path; the insert is the arbiter, so two
// racing callers can both pass the check and still only one wins.
func (s *BookingService) Book(ctx context.Context, req domain.BookingRequest) (*models.Booking, error) {
	if err := s.validate(req); err != nil {
		metrics.IncBookingAttempt(metrics.OutcomeInvalidInput)
		return nil, err
	}

	var pricePaid int64
	if req.PackageID != nil {
		pkg, err := s.store.GetPackage(ctx, *req.PackageID, req.CoachID)
		if err != nil {
			metrics.IncBookingAttempt(metrics.OutcomeNotFound)
			return nil, err
		}
		pricePaid = pkg.PriceCents
	}

	conflicts, err := s.store.GetBookingsOverlapping(ctx, req.CoachID, req.StartTime, req.EndTime, models.ActiveBookingStatuses)
	if err != nil {
		metrics.IncBookingAttempt(metrics.OutcomeInternal)
		return nil, fmt.Errorf("conflict pre-check: %w", err)
	}
	if len(conflicts) > 0 {
		metrics.IncBookingAttempt(metrics.OutcomeConflict)
		return nil, database.ErrSlotUnavailable
	}

	booking := &models.Booking{
		CoachID:        req.CoachID,
		ClientID:       req.ClientID,
		ScheduledStart: req.StartTime.UTC(),
		ScheduledEnd:   req.EndTime.UTC(),
		Status:         models.StatusScheduled,
		PackageID:      req.PackageID,
		PricePaid:      pricePaid,
	}
	if err := s.store.InsertBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotUnavailable) {
			metrics.IncBookingAttempt(metrics.OutcomeConflict)
		} else {
			metrics.IncBookingAttempt(metrics.OutcomeInternal)
		}
		return nil, err
	}
	metrics.IncBookingAttempt(metrics.OutcomeCreated)

	s.publishEvent(events.EventBookingCreated, booking)

	// The booking is authoritative once persisted; payment emission is a
	// separate retriable concern and must not roll it back.
	if pricePaid > 0 {
		s.enqueuePayment(ctx, booking)
	}

	return booking, nil
}

func (s *BookingService) validate(req domain.BookingRequest) error {
	if req.CoachID <= 0 {
		return fmt.Errorf("%w: coach id is required", ErrInvalidInput)
	}
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: client id is required", ErrInvalidInput)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end times are required", ErrInvalidInput)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if req.DurationMinutes > 0 {
		if req.EndTime.Sub(req.StartTime) != time.Duration(req.DurationMinutes)*time.Minute {
			return fmt.Errorf("%w: duration does not match the interval", ErrInvalidInput)
		}
	}
	now := s.clock.Now()
	if !req.StartTime.After(now) {
		return fmt.Errorf("%w: slot start is in the past", ErrInvalidInput)
	}
	if req.StartTime.After(now.AddDate(0, 0, s.maxAdvanceDays)) {
		return fmt.Errorf("%w: slot start is too far in the future", ErrInvalidInput)
	}
	return nil
}

// ConfirmBooking transitions scheduled → confirmed under optimistic locking.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusConfirmed, events.EventBookingConfirmed)
}

// CancelBooking frees the interval for new reservations.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusCancelled, events.EventBookingCancelled)
}

// CompleteBooking marks a finished session.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusCompleted, events.EventBookingCompleted)
}

func (s *BookingService) transition(ctx context.Context, bookingID, version int64, status, eventType string) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !models.CanTransition(booking.Status, status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, booking.Status, status)
	}

	// The version guard closes the gap between the read above and the
	// update: a concurrent change bumps the version and the update fails.
	if err := s.store.UpdateBookingStatusWithVersion(ctx, bookingID, version, status); err != nil {
		return err
	}

	booking, err = s.store.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishEvent(eventType, booking)
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// ListCoachBookings returns the coach's bookings starting within the
// inclusive calendar window, ordered by start time.
func (s *BookingService) ListCoachBookings(ctx context.Context, coachID int64, from, to time.Time) ([]models.Booking, error) {
	if coachID <= 0 {
		return nil, fmt.Errorf("%w: coach id is required", ErrInvalidInput)
	}
	from = models.DateOnly(from)
	to = models.DateOnly(to)
	if to.Before(from) {
		return []models.Booking{}, nil
	}

	bookings, err := s.store.GetCoachBookings(ctx, coachID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("fetch coach bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		CoachID:        booking.CoachID,
		ClientID:       booking.ClientID,
		Status:         booking.Status,
		ScheduledStart: booking.ScheduledStart,
		ScheduledEnd:   booking.ScheduledEnd,
		PackageID:      booking.PackageID,
		PricePaid:      booking.PricePaid,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueuePayment(ctx context.Context, booking *models.Booking) {
	if s.payments == nil {
		return
	}

	intent := models.PaymentIntent{
		ID:          uuid.NewString(),
		BookingID:   booking.ID,
		AmountCents: booking.PricePaid,
		FeeCents:    platformFee(booking.PricePaid, s.feePercent),
		Status:      models.IntentPending,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.payments.Enqueue(ctx, intent); err != nil {
		metrics.IncPaymentIntent("enqueue_failed")
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("intent_id", intent.ID).Msg("payment enqueue error")
		return
	}
	metrics.IncPaymentIntent("enqueued")
}

func platformFee(amountCents int64, percent float64) int64 {
	if percent <= 0 {
		return 0
	}
	return int64(math.Round(float64(amountCents) * percent / 100))
}
