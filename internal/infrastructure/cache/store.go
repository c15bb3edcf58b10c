package cache

import (
	"context"
	"time"
)

// Store is a key-value cache with expiration. The processor uses it as a
// fast path in front of the idempotency ledger; a miss always falls through
// to the database, so cache failures are never fatal.
type Store interface {
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
