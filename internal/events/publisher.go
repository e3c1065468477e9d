package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	TypeOperationStarted   = "operation.started"
	TypeOperationCompleted = "operation.completed"
)

// OperationEvent is appended to the audit stream after a successful write.
type OperationEvent struct {
	Type             string    `json:"type"`
	OperationID      string    `json:"operation_id"`
	OperationDate    string    `json:"operation_date"`
	Batch            string    `json:"batch"`
	Role             string    `json:"role"`
	ActorID          string    `json:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at"`
	Warning          string    `json:"warning,omitempty"`
	TotalOrders      *int      `json:"total_orders,omitempty"`
	OnTimeDeliveries *int      `json:"on_time_deliveries,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev OperationEvent) error
}

// RedisStreamPublisher XADDs events to one stream.
type RedisStreamPublisher struct {
	c      *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(c *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{c: c, stream: stream, maxLen: 100000}
}

var _ Publisher = (*RedisStreamPublisher)(nil)

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev OperationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.c.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":      ev.Type,
			"data":      string(data),
			"timestamp": ev.OccurredAt.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OperationEvent) error { return nil }
