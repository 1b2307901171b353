package quota

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on a Redis client. Increments
// and expiry refreshes run in one transactional pipeline so a counter can
// never be left without a TTL.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore constructs a RedisCounterStore.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Get returns the current count for key, zero when the key is absent.
func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, error) {
	count, errGet := s.client.Get(ctx, key).Int64()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return 0, nil
		}
		return 0, errGet
	}
	return count, nil
}

// IncrementWithExpiry atomically increments key and refreshes its expiry.
func (s *RedisCounterStore) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, errExec := pipe.Exec(ctx); errExec != nil {
		return 0, errExec
	}
	return incr.Val(), nil
}
