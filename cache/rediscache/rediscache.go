package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// Revocations remembers refresh token ids that were logged out
type Revocations struct {
	c *redis.Client
}

func NewRevocations(c *redis.Client) *Revocations {
	return &Revocations{c: c}
}

// NewClient builds a client for addr
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Revoke marks jti revoked until ttl passes. A non-positive ttl means the
// token has already expired and nothing is stored.
func (r *Revocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.c.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "redis revoke")
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.c.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis exists")
	}
	return n > 0, nil
}

func (r *Revocations) Ping(ctx context.Context) error {
	return errors.Wrap(r.c.Ping(ctx).Err(), "redis ping")
}
