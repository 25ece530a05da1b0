package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const maxLocalClients = 10000

// RateLimiter limits requests per client IP. With Redis it keeps a fixed
// window counter shared by every instance; without Redis each instance
// applies a token bucket of the same size.
type RateLimiter struct {
	rdb     *redis.Client
	maxReqs int
	window  time.Duration

	mu    sync.Mutex
	local map[string]*localEntry
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, maxReqs, windowSec int) *RateLimiter {
	if maxReqs < 1 {
		maxReqs = 1
	}
	if windowSec < 1 {
		windowSec = 1
	}
	return &RateLimiter{
		rdb:     rdb,
		maxReqs: maxReqs,
		window:  time.Duration(windowSec) * time.Second,
		local:   make(map[string]*localEntry),
	}
}

// Handler returns a Fiber middleware handler for rate limiting.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		ip := c.IP()

		var (
			remaining int64
			reset     time.Duration
			allowed   bool
		)
		if rl.rdb != nil {
			var err error
			remaining, reset, allowed, err = rl.redisAllow(c.Context(), ip)
			if err != nil {
				// Fail open while Redis is unreachable.
				slog.Warn("rate limiter unavailable, allowing request", "ip", ip, "error", err)
				return c.Next()
			}
		} else {
			remaining, reset, allowed = rl.localAllow(ip)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxReqs))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", int(reset.Seconds())))

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": int(reset.Seconds()),
			})
		}
		return c.Next()
	}
}

func (rl *RateLimiter) redisAllow(ctx context.Context, ip string) (int64, time.Duration, bool, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, false, err
	}
	// Set expiry on first request in the window
	if count == 1 {
		rl.rdb.Expire(ctx, key, rl.window)
	}
	ttl, err := rl.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = rl.window
	}

	return max(0, int64(rl.maxReqs)-count), ttl, count <= int64(rl.maxReqs), nil
}

func (rl *RateLimiter) localAllow(ip string) (int64, time.Duration, bool) {
	now := time.Now()

	rl.mu.Lock()
	entry, ok := rl.local[ip]
	if !ok {
		if len(rl.local) >= maxLocalClients {
			rl.pruneLocked(now)
		}
		entry = &localEntry{
			limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.maxReqs)), rl.maxReqs),
		}
		rl.local[ip] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	rl.mu.Unlock()

	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)
	remaining := max(0, int64(tokens))
	var reset time.Duration
	if !allowed {
		wait := (1 - tokens) / float64(limiter.Limit())
		reset = max(time.Second, time.Duration(wait*float64(time.Second)))
	}
	return remaining, reset, allowed
}

// pruneLocked drops clients idle for a full window.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for ip, e := range rl.local {
		if now.Sub(e.lastSeen) > rl.window {
			delete(rl.local, ip)
		}
	}
}
