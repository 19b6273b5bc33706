package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Defaults for the Redis store.
const (
	DefaultPrefix = "pageload:session:"
	DefaultTTL    = 30 * time.Minute
)

// RedisStore keeps each session as a Redis hash that expires after the TTL.
// Every write refreshes the expiry.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL sets the session expiry. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr string, opts ...RedisOption) *RedisStore {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Get returns the value of key in the session.
func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, ErrEmptySessionID
	}
	v, err := s.client.HGet(ctx, s.key(sessionID), key).Result()
	if errors.Is(err, backend.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key in the session and refreshes its expiry.
func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	k := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, k, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)
