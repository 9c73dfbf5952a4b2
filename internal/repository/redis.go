package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"coachly/internal/config"
	"coachly/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisPaymentQueue keeps pending payment intents in a Redis list. Producers
// push to the head, the worker pops from the tail, so intents leave in the
// order bookings were created.
type RedisPaymentQueue struct {
	client        *redis.Client
	queueKey      string
	deadLetterKey string
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisPaymentQueue(client *redis.Client, queueKey, deadLetterKey string) *RedisPaymentQueue {
	return &RedisPaymentQueue{
		client:        client,
		queueKey:      queueKey,
		deadLetterKey: deadLetterKey,
	}
}

func (q *RedisPaymentQueue) Enqueue(ctx context.Context, intent models.PaymentIntent) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal payment intent: %w", err)
	}
	if err := q.client.LPush(ctx, q.queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push payment intent to redis: %w", err)
	}
	return nil
}

// Dequeue returns the oldest pending intent, or (nil, nil) when the queue is
// empty.
func (q *RedisPaymentQueue) Dequeue(ctx context.Context) (*models.PaymentIntent, error) {
	if q.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := q.client.RPop(ctx, q.queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop payment intent from redis: %w", err)
	}

	var intent models.PaymentIntent
	if err := json.Unmarshal([]byte(val), &intent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}
	return &intent, nil
}

func (q *RedisPaymentQueue) DeadLetter(ctx context.Context, intent models.PaymentIntent) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal payment intent: %w", err)
	}
	if err := q.client.LPush(ctx, q.deadLetterKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push payment intent to dead letter list: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
