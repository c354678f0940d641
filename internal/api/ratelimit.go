package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	RPS   int // requests per second
	Burst int // burst size
}

const (
	limiterSweepEvery = time.Minute
	limiterIdleExpiry = 10 * time.Minute
)

// Limiter is a token-bucket rate limiter keyed by caller identity. Stage runs
// are long generative calls, so the limit guards against a single client
// hammering the cheap read routes, not against aggregate load.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       float64
	burst     float64
	lastSweep time.Time

	now func() time.Time
}

type bucket struct {
	level float64
	seen  time.Time
}

// NewLimiter builds a limiter allowing cfg.Burst immediate requests per
// caller, refilling at cfg.RPS.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rps:     float64(cfg.RPS),
		burst:   float64(cfg.Burst),
		now:     time.Now,
	}
}

// Allow reports whether the caller identified by key may proceed, consuming
// one token if so. Idle callers are swept opportunistically; there is no
// background goroutine to stop.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{level: l.burst}
		l.buckets[key] = b
	} else {
		b.level += now.Sub(b.seen).Seconds() * l.rps
		if b.level > l.burst {
			b.level = l.burst
		}
	}
	b.seen = now

	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterSweepEvery {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdleExpiry {
			delete(l.buckets, key)
		}
	}
}

// clientKey identifies the caller for rate limiting: the bearer token when
// one is presented (stable across proxies), the client IP otherwise.
func clientKey(c *fiber.Ctx) string {
	if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.IP()
}

// NewRateLimitMiddleware returns a per-caller rate limit middleware. Probe
// endpoints are exempt.
func NewRateLimitMiddleware(cfg RateLimitConfig) fiber.Handler {
	limiter := NewLimiter(cfg)

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		if !limiter.Allow(clientKey(c)) {
			return problemResponse(c, fiber.StatusTooManyRequests,
				"rate_limit_exceeded", "Too Many Requests",
				"Rate limit exceeded. Please try again later.")
		}
		return c.Next()
	}
}
