package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ohlcv/VuePy-Stack/internal/config"
)

// Store is a byte-valued TTL cache. A ttl <= 0 keeps the entry until deleted.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks the backend named in cfg. Redis is verified with a ping.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("cache.redis_addr is required for redis backend")
		}
		s := NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, "cryptogrid:")
		if err := s.Client.Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	if s == nil {
		return out, false, nil
	}
	b, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return out, false, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
