package repository

import (
	"context"
	"sync"

	"coachly/internal/models"
)

// MemoryPaymentQueue is the in-process fallback used when Redis is not
// configured or unreachable. Intents held here do not survive a restart.
type MemoryPaymentQueue struct {
	mu      sync.Mutex
	pending []models.PaymentIntent
	dead    []models.PaymentIntent
}

func NewMemoryPaymentQueue() *MemoryPaymentQueue {
	return &MemoryPaymentQueue{}
}

func (q *MemoryPaymentQueue) Enqueue(_ context.Context, intent models.PaymentIntent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, intent)
	return nil
}

func (q *MemoryPaymentQueue) Dequeue(_ context.Context) (*models.PaymentIntent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	intent := q.pending[0]
	q.pending = q.pending[1:]
	return &intent, nil
}

func (q *MemoryPaymentQueue) DeadLetter(_ context.Context, intent models.PaymentIntent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, intent)
	return nil
}

// DeadLetters returns a snapshot of intents that exhausted their retries.
func (q *MemoryPaymentQueue) DeadLetters() []models.PaymentIntent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.PaymentIntent, len(q.dead))
	copy(out, q.dead)
	return out
}
