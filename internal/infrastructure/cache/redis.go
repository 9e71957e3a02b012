package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyStore tracks provider message IDs that have already been
// applied, so retried webhook deliveries never create duplicate messages.
// Keys expire after the TTL; providers stop retrying long before that.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(url string, ttl time.Duration) (*IdempotencyStore, error) {
	if url == "" {
		return nil, errors.New("redis: url is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &IdempotencyStore{client: c, ttl: ttl}, nil
}

// FirstSeen records the key and reports whether this is its first occurrence.
func (s *IdempotencyStore) FirstSeen(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, key, "1", s.ttl).Result()
}

// Forget releases a key claimed by FirstSeen. Callers use it when applying
// the event failed, so the provider's retry is not treated as a duplicate.
func (s *IdempotencyStore) Forget(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
