// Package cache provides a short-lived identity cache mapping a normalized
// email address to its account record, so the auth middleware does not hit
// the database on every request. Entries always carry a bounded TTL: a
// cached identity can never outlive its window regardless of what happens
// in the database underneath.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/contact-book-api/internal/model"
)

// Identity is the typed cache interface consumed by the auth service. Get
// reports a miss with ok=false rather than an error so callers fall back to
// the database on both misses and cache outages.
type Identity interface {
	Get(ctx context.Context, email string) (*model.User, bool, error)
	Set(ctx context.Context, email string, u *model.User, ttl time.Duration) error
	Invalidate(ctx context.Context, email string) error
}

func identityKey(email string) string {
	return "identity:" + model.NormalizeEmail(email)
}

// RedisIdentity is the Redis-backed Identity implementation. Records are
// stored as JSON under identity:<email> with a per-entry TTL.
type RedisIdentity struct {
	rdb *redis.Client
}

// NewRedisIdentity wraps an existing Redis client. The client must be
// non-nil; callers without Redis use NewMemoryIdentity instead.
func NewRedisIdentity(rdb *redis.Client) *RedisIdentity {
	return &RedisIdentity{rdb: rdb}
}

func (c *RedisIdentity) Get(ctx context.Context, email string) (*model.User, bool, error) {
	bs, err := c.rdb.Get(ctx, identityKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var u model.User
	if err := json.Unmarshal(bs, &u); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten on
		// the next Set.
		return nil, false, nil
	}
	return &u, true, nil
}

func (c *RedisIdentity) Set(ctx context.Context, email string, u *model.User, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	bs, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, identityKey(email), bs, ttl).Err()
}

func (c *RedisIdentity) Invalidate(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, identityKey(email)).Err()
}
