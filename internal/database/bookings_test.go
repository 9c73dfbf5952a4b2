package database

import (
	"context"
	"testing"
	"time"

	"coachly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotStart = time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)

func newBooking(coachID, clientID int64, start time.Time, minutes int) *models.Booking {
	return &models.Booking{
		CoachID:        coachID,
		ClientID:       clientID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Duration(minutes) * time.Minute),
		Status:         models.StatusScheduled,
	}
}

func TestInsertAndGetBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booking := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, booking))
	assert.NotZero(t, booking.ID)
	assert.Equal(t, int64(1), booking.Version)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.CoachID, got.CoachID)
	assert.Equal(t, booking.ClientID, got.ClientID)
	assert.True(t, got.ScheduledStart.Equal(slotStart))
	assert.True(t, got.ScheduledEnd.Equal(slotStart.Add(time.Hour)))
	assert.Equal(t, models.StatusScheduled, got.Status)
	assert.Nil(t, got.PackageID)
}

func TestGetBookingNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBooking(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestInsertBookingOverlapRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 10, slotStart, 60)))

	tests := []struct {
		name  string
		start time.Time
		mins  int
	}{
		{"identical interval", slotStart, 60},
		{"straddles start", slotStart.Add(-30 * time.Minute), 60},
		{"straddles end", slotStart.Add(30 * time.Minute), 60},
		{"contained", slotStart.Add(15 * time.Minute), 15},
		{"containing", slotStart.Add(-30 * time.Minute), 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.InsertBooking(ctx, newBooking(1, 11, tt.start, tt.mins))
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		})
	}
}

func TestInsertBookingAdjacentAllowed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Half-open intervals: back-to-back sessions do not conflict.
	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 10, slotStart, 60)))
	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 11, slotStart.Add(time.Hour), 60)))
	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 12, slotStart.Add(-time.Hour), 60)))
}

func TestInsertBookingOtherCoachUnaffected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 10, slotStart, 60)))
	require.NoError(t, db.InsertBooking(ctx, newBooking(2, 10, slotStart, 60)))
}

func TestInsertBookingCancelledDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, first))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, first.ID, first.Version, models.StatusCancelled))

	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 11, slotStart, 60)))
}

func TestGetBookingsOverlapping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 10, slotStart, 60)))
	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 11, slotStart.Add(2*time.Hour), 60)))

	// Window covering only the first booking.
	got, err := db.GetBookingsOverlapping(ctx, 1, slotStart, slotStart.Add(time.Hour), models.ActiveBookingStatuses)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ScheduledStart.Equal(slotStart))

	// Window touching the first booking's end only: half-open, no match.
	got, err = db.GetBookingsOverlapping(ctx, 1, slotStart.Add(time.Hour), slotStart.Add(90*time.Minute), models.ActiveBookingStatuses)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Wide window returns both in start order.
	got, err = db.GetBookingsOverlapping(ctx, 1, slotStart, slotStart.Add(4*time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].ScheduledStart.Before(got[1].ScheduledStart))
}

func TestGetCoachBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booked := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, booked))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booked.ID, booked.Version, models.StatusCancelled))
	require.NoError(t, db.InsertBooking(ctx, newBooking(1, 11, slotStart, 60)))

	got, err := db.GetCoachBookings(ctx, 1, slotStart.AddDate(0, 0, -1), slotStart.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, got, 2, "cancelled bookings still listed for the coach")
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booking := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, booking))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusConfirmed))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// Stale version loses.
	err = db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestStatusUpdateCannotReoccupyTakenSlot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, first))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, first.ID, 1, models.StatusCancelled))

	// The freed interval is immediately taken by another client.
	second := newBooking(1, 11, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, second))

	err := db.UpdateBookingStatusWithVersion(ctx, first.ID, 2, models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	got, err := db.GetBooking(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status, "booking stays cancelled")
	assert.Equal(t, int64(2), got.Version)
}

func TestStatusUpdateIntoFreeIntervalAllowed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	booking := newBooking(1, 10, slotStart, 60)
	require.NoError(t, db.InsertBooking(ctx, booking))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled))

	// Nothing else holds the interval, so re-activation passes the check.
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 2, models.StatusScheduled))
}

func TestInsertBookingWithPackage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pkgID := int64(7)
	booking := newBooking(1, 10, slotStart, 60)
	booking.PackageID = &pkgID
	booking.PricePaid = 5000
	require.NoError(t, db.InsertBooking(ctx, booking))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PackageID)
	assert.Equal(t, pkgID, *got.PackageID)
	assert.Equal(t, int64(5000), got.PricePaid)
}
