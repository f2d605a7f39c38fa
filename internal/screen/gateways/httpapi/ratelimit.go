package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/haukened/ringguard/internal/screen/common/log"
)

const (
	// DefaultRateLimit is the default number of requests per minute per client.
	DefaultRateLimit = 120
	// DefaultBurstSize is the default burst size per client.
	DefaultBurstSize = 20
	// CleanupInterval is how often idle limiters are swept.
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long a limiter may sit idle before it is dropped.
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute int
	burst     int
	now       func() time.Time
	stopOnce  sync.Once
	stopCh    chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client with
// the given burst, and starts the idle sweeper. Non-positive arguments fall
// back to the defaults.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultBurstSize
	}
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request from client may proceed.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.limiters[client]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(float64(r.perMinute)/60.0), r.burst)}
		r.limiters[client] = entry
	}
	entry.lastSeen = r.now()
	return entry.limiter.Allow()
}

// retryAfter estimates the seconds until client has a token again.
func (r *RateLimiter) retryAfter(client string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.limiters[client]
	if !ok {
		return 1
	}
	missing := 1 - entry.limiter.Tokens()
	secs := int(missing*60.0/float64(r.perMinute)) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Len returns the number of tracked clients.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for client, entry := range r.limiters {
		if now.Sub(entry.lastSeen) > LimiterTTL {
			delete(r.limiters, client)
		}
	}
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// rateLimitMiddleware refuses clients that exhausted their bucket with a 429
// problem response.
func rateLimitMiddleware(rl *RateLimiter, m Metrics, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := c.RealIP()
			if rl.Allow(client) {
				return next(c)
			}
			retry := rl.retryAfter(client)
			c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			c.Response().Header().Set("X-RateLimit-Remaining", "0")
			if m != nil {
				m.RecordRateLimited()
			}
			logger.Warn(map[string]any{"client": client, "retry_after": retry}, "rate limit exceeded")
			return problem(c, http.StatusTooManyRequests, ErrorTypeRateLimit, "Rate Limit Exceeded",
				fmt.Sprintf("Too many requests. Please retry after %d seconds.", retry), nil)
		}
	}
}
