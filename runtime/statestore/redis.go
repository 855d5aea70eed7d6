package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "riyu"
	defaultTTLHours    = 24 * 30
)

// RedisKV provides a Redis-backed KV. Keys are namespaced with a prefix and
// expire after a TTL, which suits sharing one memory across machines.
type RedisKV struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisKV.
type RedisOption func(*RedisKV)

// WithTTL sets the time-to-live for stored keys.
// Default is 30 days. Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisKV) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys.
// Default is "riyu".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisKV) {
		s.prefix = prefix
	}
}

// NewRedisKV creates a new Redis-backed store.
//
// Example:
//
//	store := NewRedisKV(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithTTL(24 * time.Hour),
//	    WithPrefix("riyu"),
//	)
func NewRedisKV(client redis.UniversalClient, opts ...RedisOption) *RedisKV {
	store := &RedisKV{
		client: client,
		ttl:    defaultTTLHours * time.Hour,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Get implements KV.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Set implements KV. The TTL is refreshed on every write.
func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete implements KV.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *RedisKV) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
