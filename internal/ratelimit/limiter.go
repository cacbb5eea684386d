package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages per-client rate limits for the HTTP API. Each remote
// address gets its own token bucket; the portal itself is additionally
// protected by the one-search-at-a-time slot, so these limits only
// guard the local API surface.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a new rate limiter
// requestsPerMinute: total requests allowed per minute per client
// burst: max requests in a burst
func NewLimiter(requestsPerMinute int, burst int) *Limiter {
	r := rate.Limit(float64(requestsPerMinute) / 60.0)

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// GetLimiter returns the rate limiter for a specific client
func (l *Limiter) GetLimiter(clientID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[clientID]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[clientID] = limiter
	}

	return limiter
}

// Allow checks if a request is allowed for the given client
func (l *Limiter) Allow(clientID string) bool {
	limiter := l.GetLimiter(clientID)
	return limiter.Allow()
}

// Tokens returns the current number of available tokens for a client
func (l *Limiter) Tokens(clientID string) float64 {
	limiter := l.GetLimiter(clientID)
	return limiter.Tokens()
}
