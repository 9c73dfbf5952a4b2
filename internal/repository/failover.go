package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"coachly/internal/models"

	"github.com/rs/zerolog"
)

// FailoverPaymentQueue wraps a primary queue (Redis) with an in-memory
// fallback. After a primary failure every call goes to the fallback; the
// primary is probed again once per recovery interval.
type FailoverPaymentQueue struct {
	primary  domainQueue
	fallback domainQueue
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

type domainQueue interface {
	Enqueue(ctx context.Context, intent models.PaymentIntent) error
	Dequeue(ctx context.Context) (*models.PaymentIntent, error)
	DeadLetter(ctx context.Context, intent models.PaymentIntent) error
}

const recoveryInterval = time.Minute

func NewFailoverPaymentQueue(primary, fallback domainQueue, logger *zerolog.Logger) *FailoverPaymentQueue {
	return &FailoverPaymentQueue{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (q *FailoverPaymentQueue) markDown(err error) {
	q.logger.Error().Err(err).Msg("Primary payment queue failed, falling back to memory")
	q.isDown.Store(true)
	q.mu.Lock()
	q.lastCheck = time.Now()
	q.mu.Unlock()
}

// shouldProbe reports whether enough time passed since the last failed
// attempt to try the primary again.
func (q *FailoverPaymentQueue) shouldProbe() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if time.Since(q.lastCheck) < recoveryInterval {
		return false
	}
	q.lastCheck = time.Now()
	return true
}

func (q *FailoverPaymentQueue) Enqueue(ctx context.Context, intent models.PaymentIntent) error {
	if !q.isDown.Load() {
		err := q.primary.Enqueue(ctx, intent)
		if err == nil {
			return nil
		}
		q.markDown(err)
	} else if q.shouldProbe() {
		if err := q.primary.Enqueue(ctx, intent); err == nil {
			q.isDown.Store(false)
			return nil
		}
	}

	return q.fallback.Enqueue(ctx, intent)
}

func (q *FailoverPaymentQueue) Dequeue(ctx context.Context) (*models.PaymentIntent, error) {
	if !q.isDown.Load() {
		intent, err := q.primary.Dequeue(ctx)
		if err == nil {
			if intent != nil {
				return intent, nil
			}
			// Primary is healthy but empty; drain anything stranded in
			// the fallback during the outage.
			return q.fallback.Dequeue(ctx)
		}
		q.markDown(err)
	} else if q.shouldProbe() {
		if intent, err := q.primary.Dequeue(ctx); err == nil {
			q.isDown.Store(false)
			if intent != nil {
				return intent, nil
			}
		}
	}

	return q.fallback.Dequeue(ctx)
}

func (q *FailoverPaymentQueue) DeadLetter(ctx context.Context, intent models.PaymentIntent) error {
	if !q.isDown.Load() {
		err := q.primary.DeadLetter(ctx, intent)
		if err == nil {
			return nil
		}
		q.markDown(err)
	}

	return q.fallback.DeadLetter(ctx, intent)
}
