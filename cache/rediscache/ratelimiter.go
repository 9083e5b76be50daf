package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key
type RateLimiter struct {
	c      *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(c *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{c: c, limit: limit, window: window}
}

// Allow increments the counter for key and reports whether it is still
// within the limit. The window starts with the first hit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "rl:" + key
	n, err := rl.c.Incr(ctx, k).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis ratelimit")
	}
	if n == 1 {
		if err := rl.c.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, errors.Wrap(err, "redis ratelimit expire")
		}
	}
	return n <= rl.limit, nil
}
