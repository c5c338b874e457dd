package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	HashStore
	KeyScanner
	PubSub
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// HashStore provides hash field operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// KeyScanner iterates keys by glob pattern.
type KeyScanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// PubSub publishes and receives channel messages.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	// Subscribe blocks, calling fn for each message, until ctx is done or the connection fails.
	Subscribe(ctx context.Context, channel string, fn func(message string)) error
}
