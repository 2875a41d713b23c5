package ratelimiter

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "eventatlas:ratelimit:"

// RedisLimiter is a GCRA limiter whose state lives in Redis, shared by every node
type RedisLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{limiter: redis_rate.NewLimiter(client)}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string, quota int, duration time.Duration) (Result, error) {
	r, err := rl.limiter.Allow(ctx, redisKeyPrefix+key, redis_rate.Limit{
		Rate:   quota,
		Burst:  quota,
		Period: duration,
	})
	if err != nil {
		return Result{Limit: quota}, err
	}

	res := Result{
		Allowed:   r.Allowed > 0,
		Limit:     quota,
		Remaining: r.Remaining,
		Reset:     r.ResetAfter,
	}
	if r.RetryAfter > 0 {
		res.RetryAfter = r.RetryAfter
	}
	return res, nil
}
