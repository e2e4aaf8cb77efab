package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Publish(ctx context.Context, msg ChangeMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Publish(ctx context.Context, msg ChangeMessage) error {
	fields := map[string]any{
		"subject_id": msg.SubjectID,
		"kind":       string(msg.Kind),
	}
	if msg.EntryID != nil {
		fields["entry_id"] = *msg.EntryID
	}
	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish history change: %w", err)
	}

	slog.DebugContext(ctx, "published history change", "kind", msg.Kind)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
