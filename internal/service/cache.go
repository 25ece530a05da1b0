package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"movie-discovery-match-service/internal/metrics"
)

// cache is a nil-safe JSON cache-aside helper over Redis.
type cache struct {
	name  string
	redis *redis.Client
}

func newCache(name string, rdb *redis.Client) cache {
	return cache{name: name, redis: rdb}
}

// get decodes the cached value for key into dst and reports a hit.
func (c cache) get(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		metrics.RecordCache(c.name, false)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("cache entry corrupt", "key", key, "error", err)
		metrics.RecordCache(c.name, false)
		return false
	}
	metrics.RecordCache(c.name, true)
	return true
}

func (c cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}

func (c cache) del(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		slog.Error("failed to invalidate cache", "keys", keys, "error", err)
	}
}

// version reads the generation counter stored at key. A missing counter is
// generation 0. ok is false when Redis is absent or unreachable, in which
// case callers must not use the cache.
func (c cache) version(ctx context.Context, key string) (v int64, ok bool) {
	if c.redis == nil {
		return 0, false
	}
	v, err := c.redis.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("cache version read failed", "key", key, "error", err)
		return 0, false
	}
	return v, true
}

// bump moves key to the next generation. Entries written under an older
// generation are never read again and expire on their own TTL.
func (c cache) bump(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, key).Err(); err != nil {
		slog.Error("failed to bump cache version", "key", key, "error", err)
	}
}

func interactedVersionKey(userID string) string {
	return "user:interacted_ver:" + userID
}

func interactedKey(userID string, version int64, titleType string) string {
	return fmt.Sprintf("user:interacted:%s:v%d:%s", userID, version, titleType)
}
