package httpx

import (
	"context"
	"sync"
	"time"
)

const memorySweepEvery = 5 * time.Minute

type memoryRateLimiter struct {
	clock func() time.Time

	mu        sync.Mutex
	windows   map[string]quota
	nextSweep time.Time
}

// NewMemoryRateLimiter keeps counters in process memory. Expired windows are
// pruned while serving Take, so there is no background goroutine. A nil clock
// means time.Now.
func NewMemoryRateLimiter(clock func() time.Time) RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &memoryRateLimiter{
		clock:   clock,
		windows: make(map[string]quota),
	}
}

func (m *memoryRateLimiter) Take(_ context.Context, key string, rule rateRule) quota {
	if rule.limit <= 0 {
		return unlimited()
	}
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)
	q, ok := m.windows[key]
	if !ok || !now.Before(q.resetAt) {
		q = quota{resetAt: now.Add(rule.windowOrDefault())}
	}
	// Once over the limit the counter stops growing; one over is enough
	// for exceeds to hold until the window ends.
	if q.used <= rule.limit {
		q.used++
	}
	m.windows[key] = q
	q.resetIn = q.resetAt.Sub(now)
	return q
}

func (m *memoryRateLimiter) sweep(now time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	for key, q := range m.windows {
		if !now.Before(q.resetAt) {
			delete(m.windows, key)
		}
	}
	m.nextSweep = now.Add(memorySweepEvery)
}

func (m *memoryRateLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.windows)
}
