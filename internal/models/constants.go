package models

// Booking statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ActiveBookingStatuses are the statuses that occupy a time range for
// overlap purposes.
var ActiveBookingStatuses = []string{StatusScheduled, StatusConfirmed}

// legalTransitions lists the statuses each status may move to. Cancelled
// and completed are terminal.
var legalTransitions = map[string][]string{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment intent statuses.
const (
	IntentPending = "pending"
)

const (
	// DefaultSlotStepMinutes caps the stepping interval between candidate
	// slot starts. The effective step is min(cap, requested duration).
	DefaultSlotStepMinutes = 30

	// DefaultMaxWindowDays bounds a single slot query window.
	DefaultMaxWindowDays = 90
)
