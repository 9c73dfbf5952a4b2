package domain

import (
	"context"
	"time"

	"coachly/internal/models"
)

// RuleStore reads coach availability rules. Rules are owned by the coach
// profile surface and are read-only here.
type RuleStore interface {
	GetActiveRules(ctx context.Context, coachID int64, weekdays []int, from, to time.Time) ([]models.AvailabilityRule, error)
}

// BookingStore persists session reservations. InsertBooking must enforce the
// per-coach overlap exclusion at the storage layer: a losing concurrent
// insert returns database.ErrSlotUnavailable, never a generic failure.
type BookingStore interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingsOverlapping(ctx context.Context, coachID int64, start, end time.Time, statuses []string) ([]models.Booking, error)
	GetCoachBookings(ctx context.Context, coachID int64, from, to time.Time) ([]models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
}

// PackageStore resolves session packages.
type PackageStore interface {
	GetPackage(ctx context.Context, id, coachID int64) (*models.Package, error)
}

// Store is the full relational surface the services depend on.
type Store interface {
	RuleStore
	BookingStore
	PackageStore
}

// Clock abstracts wall-clock time so slot generation is testable with a
// fixed instant.
type Clock interface {
	Now() time.Time
}

// EventPublisher fans out domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentQueue buffers pending payment intents between the booking path and
// the emission worker. Dequeue returns (nil, nil) when the queue is empty.
type PaymentQueue interface {
	Enqueue(ctx context.Context, intent models.PaymentIntent) error
	Dequeue(ctx context.Context) (*models.PaymentIntent, error)
	DeadLetter(ctx context.Context, intent models.PaymentIntent) error
}

// PaymentGateway is the external payments provider boundary.
type PaymentGateway interface {
	EmitPendingPayment(ctx context.Context, intent models.PaymentIntent) error
}

// SlotService derives bookable slots for a coach and window.
type SlotService interface {
	ListSlots(ctx context.Context, coachID int64, windowStart, windowEnd time.Time, durationMinutes int) ([]models.Slot, error)
}

// BookingService claims slots and drives the booking lifecycle.
type BookingService interface {
	Book(ctx context.Context, req BookingRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, version int64) error
	CancelBooking(ctx context.Context, bookingID, version int64) error
	CompleteBooking(ctx context.Context, bookingID, version int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListCoachBookings(ctx context.Context, coachID int64, from, to time.Time) ([]models.Booking, error)
}

// BookingRequest carries the caller's chosen slot.
type BookingRequest struct {
	CoachID         int64
	ClientID        int64
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	PackageID       *int64
}
