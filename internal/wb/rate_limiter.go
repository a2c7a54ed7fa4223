package wb

import (
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests so the marketplace's per-second
// limits are not tripped in the first place; 429 handling in the dispatcher
// is the backstop.
type RateLimiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

func (r *RateLimiter) WaitTurn() {
	r.mu.Lock()
	now := time.Now()
	scheduled := now
	if r.next.After(now) {
		scheduled = r.next
	}
	r.next = scheduled.Add(r.interval)
	r.mu.Unlock()

	if sleep := time.Until(scheduled); sleep > 0 {
		time.Sleep(sleep)
	}
}
