package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/metrics"
)

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // Tokens refilled per window (default 100)
	Window  time.Duration // Refill window (default 1 minute)
	Burst   int           // Extra capacity above Rate (default 20)
	Cleanup time.Duration // Idle bucket sweep interval (default 5 minutes)
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// RateLimiter is a keyed token bucket. Each key holds up to Rate+Burst
// tokens and regains Rate tokens per Window. Keys are HTTP callers or socket
// connections.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     int
	window   time.Duration
	capacity int
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a limiter and starts its idle-bucket sweeper
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst < 0 {
		cfg.Burst = 0
	} else if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     cfg.Rate,
		window:   cfg.Window,
		capacity: cfg.Rate + cfg.Burst,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.sweep(cfg.Cleanup)
	return rl
}

// Stop ends the sweeper; safe to call more than once
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Limit returns the tokens granted per window
func (rl *RateLimiter) Limit() int {
	return rl.rate
}

// Allow takes one token from key's bucket
func (rl *RateLimiter) Allow(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastRefill: now}
		rl.buckets[key] = b
	} else {
		rl.refill(b, now)
	}

	reset := b.lastRefill.Add(rl.window)
	if b.tokens <= 0 {
		return Decision{Allowed: false, Remaining: 0, Reset: reset}
	}
	b.tokens--
	return Decision{Allowed: true, Remaining: b.tokens, Reset: reset}
}

// Forget drops key's bucket, e.g. when a socket disconnects
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	delete(rl.buckets, key)
	rl.mu.Unlock()
}

// refill credits whole tokens for the time since the last refill.
// lastRefill only advances when a token was credited so slow trickles of
// time still add up.
func (rl *RateLimiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed >= rl.window {
		b.tokens = rl.capacity
		b.lastRefill = now
		return
	}
	earned := int(int64(rl.rate) * int64(elapsed) / int64(rl.window))
	if earned > 0 {
		b.tokens = min(b.tokens+earned, rl.capacity)
		b.lastRefill = now
	}
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

// evictIdle removes buckets untouched for two windows; they would be full
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// size reports the number of live buckets
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimit throttles requests per caller: the user ID when authenticated,
// otherwise the client address without its port
func RateLimit(limiter *RateLimiter, errs ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Allow(rateLimitKey(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				retryAfter := max(int(d.Reset.Sub(limiter.now()).Seconds()), 1)
				h.Set("Retry-After", strconv.Itoa(retryAfter))

				metrics.RateLimitRejectedTotal.WithLabelValues("http").Inc()
				errs.WriteError(w, r, apperror.NewRateLimited(
					fmt.Sprintf("Rate limit exceeded, retry after %d seconds", retryAfter)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
