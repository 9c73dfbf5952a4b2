package models

import "time"

// PaymentIntent is the pending payment record handed to the payments
// provider after a booking lands. Emission is fire-and-forget and retriable;
// ID doubles as the idempotency key across retries.
type PaymentIntent struct {
	ID          string    `json:"id"`
	BookingID   int64     `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	FeeCents    int64     `json:"fee_cents"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}
