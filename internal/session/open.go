package session

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures a session backend.
type Config struct {
	Backend string
	Addr    string
	Prefix  string
	TTL     time.Duration
}

// Open creates the Store described by cfg. A Redis store is pinged once.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		var opts []RedisOption
		if cfg.Prefix != "" {
			opts = append(opts, WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, WithTTL(cfg.TTL))
		}
		store := NewRedisStore(cfg.Addr, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
