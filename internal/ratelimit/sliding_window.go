// Package ratelimit bounds how often a logical action may be attempted inside a
// sliding time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow is a process-local limiter. Buckets are keyed by caller-chosen
// strings, created on first use and pruned lazily on every check.
type SlidingWindow struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewSlidingWindow returns an empty limiter using the wall clock.
func NewSlidingWindow() *SlidingWindow {
	return NewSlidingWindowWithClock(time.Now)
}

// NewSlidingWindowWithClock returns an empty limiter reading time from now.
func NewSlidingWindowWithClock(now func() time.Time) *SlidingWindow {
	if now == nil {
		now = time.Now
	}
	return &SlidingWindow{buckets: make(map[string][]time.Time), now: now}
}

// IsRateLimited reports whether key already has maxAttempts attempts newer than
// window. When it does, nothing is recorded and true is returned; otherwise the
// current attempt is recorded and false is returned.
func (l *SlidingWindow) IsRateLimited(key string, maxAttempts int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := prune(l.buckets[key], now, window)

	if len(kept) >= maxAttempts {
		l.store(key, kept)
		return true
	}

	l.buckets[key] = append(kept, now)
	return false
}

// Reset discards the bucket for key.
func (l *SlidingWindow) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of live buckets.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets whose newest attempt is older than maxAge and returns how
// many were removed. Checks never depend on it.
func (l *SlidingWindow) Sweep(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, attempts := range l.buckets {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) >= maxAge {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done. A non-positive interval
// returns immediately.
func (l *SlidingWindow) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(maxAge)
		}
	}
}

// store keeps pruned buckets and forgets empty ones (caller holds l.mu).
func (l *SlidingWindow) store(key string, attempts []time.Time) {
	if len(attempts) == 0 {
		delete(l.buckets, key)
		return
	}
	l.buckets[key] = attempts
}

// prune keeps the attempts with now - t < window, preserving order.
func prune(attempts []time.Time, now time.Time, window time.Duration) []time.Time {
	kept := attempts[:0]
	for _, t := range attempts {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	return kept
}

// Local adapts a SlidingWindow to the context-aware limiter port.
type Local struct {
	Window *SlidingWindow
}

// IsRateLimited implements ports.RateLimiter. It never fails.
func (l Local) IsRateLimited(_ context.Context, key string, maxAttempts int, window time.Duration) (bool, error) {
	return l.Window.IsRateLimited(key, maxAttempts, window), nil
}

// Reset implements ports.RateLimiter.
func (l Local) Reset(_ context.Context, key string) error {
	l.Window.Reset(key)
	return nil
}
