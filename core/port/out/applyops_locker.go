package out

import (
	"context"
	"time"
)

// RunLocker serializes long-running jobs per key. Acquire returns false
// when the key is already held; the lock self-expires after ttl so a
// crashed run cannot wedge the user forever.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
