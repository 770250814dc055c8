package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily on each acquire.
type rateLimiter struct {
	lastRefill time.Time
	now        func() time.Time
	tokens     float64
	capacity   float64
	perSecond  float64
	mu         sync.Mutex
}

// newRateLimiter creates a rate limiter allowing requestsPerMinute calls,
// bursting up to the same number.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	rl := &rateLimiter{
		tokens:    float64(requestsPerMinute),
		capacity:  float64(requestsPerMinute),
		perSecond: float64(requestsPerMinute) / 60,
		now:       time.Now,
	}
	rl.lastRefill = rl.now()
	return rl
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAcquire takes a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	return rl.reserve() == 0
}

// reserve takes a token if one is available and returns zero, or returns how
// long until the next token.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed > 0 {
		rl.tokens += elapsed * rl.perSecond
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
		rl.lastRefill = now
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}

	delay := time.Duration((1 - rl.tokens) / rl.perSecond * float64(time.Second))
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	return delay
}
