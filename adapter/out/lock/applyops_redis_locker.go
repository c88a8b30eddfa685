// Package lock provides per-key run lock adapters.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"applyops_server/core/port/out"
)

// RedisLocker implements out.RunLocker with SET NX and a TTL, so a
// crashed holder frees the key on its own.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

var _ out.RunLocker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
