package infra

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// EventPublisher sends a domain event under a routing key. Implementations
// must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close() error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments an integer key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// Keyed is implemented by events that carry a partitioning key.
type Keyed interface {
	EventKey() string
}

type NoopPublisher struct{}

var _ EventPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
