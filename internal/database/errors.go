package database

import "errors"

var (
	// ErrSlotUnavailable is returned when an insert loses the per-coach
	// overlap exclusion, whether at the advisory pre-check or at commit.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrPackageNotFound is returned for a missing, inactive, or
	// foreign-coach package.
	ErrPackageNotFound = errors.New("package not found")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidRule rejects malformed availability rules at the store
	// boundary.
	ErrInvalidRule = errors.New("invalid availability rule")

	ErrConcurrentModification = errors.New("booking was modified concurrently")
)
