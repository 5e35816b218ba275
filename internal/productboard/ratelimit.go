package productboard

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket that admits outbound API requests. Refill
// is computed lazily from elapsed time on every access, so there is no
// background timer to manage.
//
// One limiter instance is shared by every request the client issues, which
// bounds the total outbound rate across all tools rather than per-tool.
type RateLimiter struct {
	mu             sync.Mutex
	maxTokens      int
	refillRate     int
	refillInterval time.Duration
	tokens         int
	lastRefill     time.Time
}

// NewRateLimiter creates a limiter that starts full and adds refillRate
// tokens every refillInterval, capped at maxTokens.
func NewRateLimiter(maxTokens, refillRate int, refillInterval time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate < 1 {
		refillRate = 1
	}
	if refillInterval <= 0 {
		refillInterval = time.Second
	}
	return &RateLimiter{
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		refillInterval: refillInterval,
		tokens:         maxTokens,
		lastRefill:     time.Now(),
	}
}

// refillLocked credits tokens for whole elapsed intervals. lastRefill only
// advances by the intervals actually consumed, so fractional progress
// towards the next refill is preserved rather than reset to "now".
func (l *RateLimiter) refillLocked() {
	elapsed := time.Since(l.lastRefill)
	if elapsed < l.refillInterval {
		return
	}
	intervals := int64(elapsed / l.refillInterval)
	l.tokens += int(intervals) * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = l.lastRefill.Add(time.Duration(intervals) * l.refillInterval)
}

// TryAcquire takes a token if one is available without blocking.
func (l *RateLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// WaitTime returns zero if a token is available now, otherwise the time
// remaining until the next refill boundary.
func (l *RateLimiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens > 0 {
		return 0
	}
	return time.Until(l.lastRefill.Add(l.refillInterval))
}

// Acquire blocks until a token is taken or the context is cancelled. This
// is a cooperative sleep-and-retry loop, not a queue: waiters woken at the
// same refill boundary race for the new tokens, so acquisition order is
// not strictly FIFO.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		if l.TryAcquire() {
			return nil
		}

		wait := l.WaitTime()
		if wait <= 0 {
			// Another waiter took the token between the two calls
			wait = time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Tokens returns the number of tokens currently available.
func (l *RateLimiter) Tokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}
