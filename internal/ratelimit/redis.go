package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements the same fixed window as MemoryLimiter on a
// shared redis counter, so the quota holds across server instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	period time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		period: period,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := "ratelimit:" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.period).Err(); err != nil {
			return Result{}, err
		}
	}

	ttl, err := r.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = r.period
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(r.limit) {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: r.limit - int(count), ResetAt: resetAt}, nil
}

func (r *RedisLimiter) Close() error { return nil }
