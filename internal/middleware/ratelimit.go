package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter implements a sliding window rate limit over opaque caller keys.
// Each route group carries its own limiter so that event collection, query,
// and key-management traffic are throttled independently.
type RateLimiter struct {
	mu          sync.Mutex
	counters    map[string]*window
	max         int
	window      time.Duration
	lastCleanup time.Time
}

type window struct {
	count       int
	windowStart time.Time
	resetAt     time.Time
	lastSeen    time.Time
}

const (
	cleanupInterval    = 5 * time.Minute
	expiredWindowGrace = 10 * time.Minute
	staleEntryTTL      = 24 * time.Hour
)

// NewRateLimiter creates an in-memory rate limiter allowing max requests per
// windowDuration per caller key.
func NewRateLimiter(max int, windowDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		counters:    make(map[string]*window),
		max:         max,
		window:      windowDuration,
		lastCleanup: time.Now(),
	}
}

// Allow checks whether the caller identified by key is within its limit.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	w, exists := rl.counters[key]
	if !exists || now.After(w.resetAt) {
		rl.counters[key] = &window{
			count:       1,
			windowStart: now,
			resetAt:     now.Add(rl.window),
			lastSeen:    now,
		}
		rl.cleanupLocked(now)
		return true, rl.max - 1, now.Add(rl.window)
	}

	w.lastSeen = now
	resetAt := w.resetAt

	if w.count >= rl.max {
		rl.cleanupLocked(now)
		return false, 0, resetAt
	}

	w.count++
	rl.cleanupLocked(now)
	return true, rl.max - w.count, resetAt
}

// KeyFunc derives the throttling key for a request. Requests for which it
// returns "" are keyed by client IP.
type KeyFunc func(r *http.Request) string

// ByIdentity keys requests by the authenticated application; falls back to
// client IP before authentication.
func ByIdentity(r *http.Request) string {
	if identity := GetIdentity(r.Context()); identity != nil {
		return "app:" + identity.ApplicationID.String()
	}
	return ""
}

// ByOwner keys requests by the authenticated owner account.
func ByOwner(r *http.Request) string {
	if owner := GetOwner(r.Context()); owner != nil {
		return "owner:" + owner.ID.String()
	}
	return ""
}

// RateLimitMiddleware returns middleware enforcing rl for keys derived by
// keyFunc.
func RateLimitMiddleware(rl *RateLimiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = clientIPKey(r, "ip")
			}

			allowed, remaining, resetAt := rl.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval {
		return
	}

	for key, w := range rl.counters {
		if now.Sub(w.lastSeen) > staleEntryTTL || now.After(w.resetAt.Add(expiredWindowGrace)) {
			delete(rl.counters, key)
		}
	}

	rl.lastCleanup = now
}
