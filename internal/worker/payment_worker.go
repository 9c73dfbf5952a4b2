package worker

import (
	"context"
	"fmt"
	"time"

	"coachly/internal/domain"
	"coachly/internal/metrics"
	"coachly/internal/models"

	"github.com/rs/zerolog"
)

// PaymentWorker drains the payment intent queue and hands each intent to the
// gateway. Delivery is at-least-once: a crash between dequeue and emit can
// replay an intent, and the gateway dedupes on the intent id.
type PaymentWorker struct {
	queue        domain.PaymentQueue
	gateway      domain.PaymentGateway
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	logger       *zerolog.Logger
}

// NewPaymentWorker builds a worker with sane defaults.
func NewPaymentWorker(queue domain.PaymentQueue, gateway domain.PaymentGateway, retry RetryPolicy, pollInterval time.Duration, logger *zerolog.Logger) *PaymentWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	return &PaymentWorker{
		queue:        queue,
		gateway:      gateway,
		retryPolicy:  retry,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Start launches main loop; stops when ctx is done.
func (w *PaymentWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("payment worker started")
	defer w.logger.Info().Msg("payment worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		intent, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("payment worker: dequeue failed")
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if intent == nil {
			w.sleep(ctx, w.pollInterval)
			continue
		}

		w.processIntent(ctx, *intent)
	}
}

// processIntent retries the gateway call with backoff and dead-letters the
// intent once retries are exhausted.
func (w *PaymentWorker) processIntent(ctx context.Context, intent models.PaymentIntent) {
	// A replayed intent can arrive with its budget already spent; it goes
	// straight to the dead letter queue with an explicit reason.
	lastErr := fmt.Errorf("retry budget exhausted after %d attempts", intent.Attempts)
	for attempt := intent.Attempts + 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		intent.Attempts = attempt
		lastErr = w.gateway.EmitPendingPayment(ctx, intent)
		if lastErr == nil {
			metrics.IncPaymentIntent("emitted")
			w.logger.Info().
				Str("intent_id", intent.ID).
				Int64("booking_id", intent.BookingID).
				Int("attempt", attempt).
				Msg("payment intent emitted")
			return
		}

		w.logger.Warn().Err(lastErr).
			Str("intent_id", intent.ID).
			Int("attempt", attempt).
			Msg("payment intent emit failed")

		if attempt < w.retryPolicy.MaxRetries {
			if !w.sleep(ctx, w.retryPolicy.NextDelay(attempt)) {
				break
			}
		}
	}

	metrics.IncPaymentIntent("dead_letter")
	w.logger.Error().Err(lastErr).
		Str("intent_id", intent.ID).
		Int64("booking_id", intent.BookingID).
		Msg("payment intent exhausted retries, moving to dead letter")

	if err := w.queue.DeadLetter(ctx, intent); err != nil {
		w.logger.Error().Err(err).Str("intent_id", intent.ID).Msg("payment worker: dead letter failed")
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// delay elapsed.
func (w *PaymentWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
