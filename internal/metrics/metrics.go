package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Booking attempt outcomes.
const (
	OutcomeCreated      = "created"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNotFound     = "not_found"
	OutcomeConflict     = "slot_unavailable"
	OutcomeInternal     = "internal"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachly",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coachly",
			Name:      "slots_generated_total",
			Help:      "Slots returned by availability queries.",
		},
	)

	bookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachly",
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	paymentIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachly",
			Name:      "payment_intents_total",
			Help:      "Payment intent emissions by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, slotsGenerated, bookingAttempts, paymentIntents)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// AddSlotsGenerated records slots returned by a query.
func AddSlotsGenerated(n int) {
	slotsGenerated.Add(float64(n))
}

// IncBookingAttempt records a booking attempt outcome.
func IncBookingAttempt(outcome string) {
	bookingAttempts.WithLabelValues(outcome).Inc()
}

// IncPaymentIntent records a payment emission result.
func IncPaymentIntent(result string) {
	paymentIntents.WithLabelValues(result).Inc()
}
