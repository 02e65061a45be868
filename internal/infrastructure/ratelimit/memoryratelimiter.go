package ratelimit

import (
	"sync"
	"time"
)

// MemoryRateLimiter is a sliding-window limiter backed by in-process
// state. Counts reset on restart, which is acceptable for the abuse
// protection it provides.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(key string, config RateLimitConfig) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	windows := []struct {
		duration time.Duration
		limit    int
	}{
		{time.Minute, config.RequestsPerMinute},
		{time.Hour, config.RequestsPerHour},
	}

	// Keep only timestamps still inside the longest configured window.
	longest := time.Minute
	for _, w := range windows {
		if w.limit > 0 && w.duration > longest {
			longest = w.duration
		}
	}
	hits := prune(l.windows[key], now.Add(-longest))

	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		if countSince(hits, now.Add(-w.duration)) >= w.limit {
			l.windows[key] = hits
			return false, nil
		}
	}

	l.windows[key] = append(hits, now)
	return true, nil
}

func (l *MemoryRateLimiter) GetRemaining(key string, window time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return int64(countSince(l.windows[key], l.now().Add(-window))), nil
}

func (l *MemoryRateLimiter) Reset(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

func countSince(hits []time.Time, cutoff time.Time) int {
	count := 0
	for _, h := range hits {
		if h.After(cutoff) {
			count++
		}
	}
	return count
}
