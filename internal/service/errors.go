package service

import "errors"

var (
	// ErrInvalidInput marks caller errors that never reach storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWindowTooLarge rejects slot queries over an excessive date span.
	ErrWindowTooLarge = errors.New("requested window is too large")

	// ErrInvalidTransition rejects status changes outside the booking
	// lifecycle, such as confirming a cancelled booking.
	ErrInvalidTransition = errors.New("illegal status transition")
)
