package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ClaimStore implements ports.ClaimStore using Redis SET NX. A claim is a
// bare presence marker; expiry is the only release mechanism.
type ClaimStore struct {
	client *goredis.Client
	prefix string
}

// NewClaimStore creates a Redis-backed idempotency claim store.
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: "idem:",
	}
}

// SetIfAbsent atomically claims the key with the given TTL.
// Returns true if the key was absent (claim won), false if it already exists.
func (s *ClaimStore) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — claim lost
			return false, nil
		}
		return false, fmt.Errorf("redis claim set: %w", err)
	}
	return result == "OK", nil
}
