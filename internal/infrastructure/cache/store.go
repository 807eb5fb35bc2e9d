package cache

import (
	"context"
	"time"
)

// Store is the expiring key-value surface shared by the Redis and in-memory
// implementations.
type Store interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	// Incr atomically adds one to the counter at key, creating it at 1, and
	// sets its expiry to ttl. It returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

const (
	defaultTTL     = 600 * time.Second
	defaultLockTTL = 30 * time.Second
)

var (
	_ Store = (*Redis)(nil)
	_ Store = (*Memory)(nil)
)
