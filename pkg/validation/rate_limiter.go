package validation

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket per key. The CLI keys it by scenario path
// so an editor saving in a tight loop cannot reset the world every frame.
type RateLimiter struct {
	maxEvents int
	window    time.Duration
	keys      map[string]*bucket
	mu        sync.Mutex
	now       func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// NewRateLimiter allows maxEvents per window for each key
func NewRateLimiter(maxEvents int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxEvents: maxEvents,
		window:    window,
		keys:      make(map[string]*bucket),
		now:       time.Now,
	}
}

// Allow consumes a token for key and reports whether one was available
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.keys[key]
	if !ok {
		b = &bucket{tokens: rl.maxEvents, lastRefill: now}
		rl.keys[key] = b
	}

	b.lastSeen = now

	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 && b.tokens < rl.maxEvents {
		windowsPassed := float64(elapsed) / float64(rl.window)
		if refill := int(float64(rl.maxEvents) * windowsPassed); refill > 0 {
			b.tokens = min(b.tokens+refill, rl.maxEvents)
			b.lastRefill = now
		}
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Forget drops state for keys idle for more than two windows
func (rl *RateLimiter) Forget() {
	cutoff := rl.now().Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.keys {
		if b.lastSeen.Before(cutoff) {
			delete(rl.keys, key)
		}
	}
}
