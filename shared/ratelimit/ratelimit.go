package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter is a fixed-window counter backed by Redis. The window state lives
// in the store, not the process, so replicas of the API share one budget.
type Limiter struct {
	rds    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewLimiter creates a limiter allowing `limit` hits per `window` for each
// distinct key under the given prefix.
func NewLimiter(rds *redis.Client, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		rds:    rds,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow consumes one hit for key and reports whether it is still inside the
// window's budget. The expiry is set when the counter is first created, so
// the window is fixed rather than sliding.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + ":" + key

	count, err := l.rds.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := l.rds.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= l.limit, nil
}
