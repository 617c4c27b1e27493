package domain

import (
	"context"
	"time"
)

// KVStore is the keyed store behind the knowledge tiers. Implementations must
// make each single-key operation atomic. Get returns store.ErrNotFound for
// missing or expired keys. A zero ttl means the key never expires.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// AtomicMover is implemented by stores that can delete one key and write
// another in a single transaction.
type AtomicMover interface {
	Move(ctx context.Context, fromKey, toKey string, value []byte) error
}

// Sweeper is implemented by stores that keep expired rows around until they
// are explicitly purged.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}
