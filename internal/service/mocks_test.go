package service

import (
	"context"
	"time"

	"coachly/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetActiveRules(ctx context.Context, coachID int64, weekdays []int, from, to time.Time) ([]models.AvailabilityRule, error) {
	args := m.Called(ctx, coachID, weekdays, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailabilityRule), args.Error(1)
}

func (m *mockStore) InsertBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockStore) GetBookingsOverlapping(ctx context.Context, coachID int64, start, end time.Time, statuses []string) ([]models.Booking, error) {
	args := m.Called(ctx, coachID, start, end, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockStore) GetCoachBookings(ctx context.Context, coachID int64, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, coachID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockStore) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error {
	return m.Called(ctx, id, version, status).Error(0)
}

func (m *mockStore) GetPackage(ctx context.Context, id, coachID int64) (*models.Package, error) {
	args := m.Called(ctx, id, coachID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, intent models.PaymentIntent) error {
	return m.Called(ctx, intent).Error(0)
}

func (m *mockQueue) Dequeue(ctx context.Context) (*models.PaymentIntent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *mockQueue) DeadLetter(ctx context.Context, intent models.PaymentIntent) error {
	return m.Called(ctx, intent).Error(0)
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
