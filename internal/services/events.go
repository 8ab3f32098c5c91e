package services

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/internal/models"
)

// EventPublisher hands committed transactions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.TransactionEvent) error
}

// RedisEventPublisher appends events to a Redis list.
type RedisEventPublisher struct {
	client *redis.Client
	queue  string
}

func NewRedisEventPublisher(client *redis.Client, queue string) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, queue: queue}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event models.TransactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.RPush(ctx, p.queue, data).Err()
}
