package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/clock"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key. Buckets that sit
// idle for limiterIdleTTL are swept on a later request.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	perMinute int
	clock     clock.Clock
	lastSweep time.Time
}

func NewRateLimiter(requestsPerMinute, burst int, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.WallClock
	}
	if burst <= 0 {
		burst = 1
	}

	return &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     burst,
		perMinute: requestsPerMinute,
		clock:     clk,
		lastSweep: clk.Now(),
	}
}

// Allow consumes a token for key and reports the tokens left afterwards.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.sweep(now)

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	return allowed, remaining
}

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < limiterIdleTTL {
		return
	}
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

// RateLimit is a no-op when RATE_LIMIT_PER_MINUTE is zero.
func (m *Middleware) RateLimit() fiber.Handler {
	if m.limiter == nil {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	log := m.log.Function("RateLimit")
	limit := strconv.Itoa(m.limiter.perMinute)

	return func(c *fiber.Ctx) error {
		allowed, remaining := m.limiter.Allow(c.IP())
		reset := strconv.FormatInt(m.limiter.clock.Now().Add(time.Minute).Unix(), 10)

		c.Set("X-RateLimit-Limit", limit)
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", reset)

		if !allowed {
			log.Warn("rate limit exceeded", "ip", c.IP(), "path", c.Path())
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests. Please try again later.",
			})
		}

		return c.Next()
	}
}
