// Package ratelimit defines the admission policy for calls to the enrichment API.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Default limiter configuration constants.
const (
	defaultCapacity = 50
	defaultWindow   = time.Hour
)

// Limiter admits or rejects call attempts.
type Limiter interface {
	// TryAcquire reports whether a new call may proceed and, if so, records it.
	// It never blocks; a rejected attempt leaves the limiter unchanged.
	TryAcquire(ctx context.Context) bool

	// Remaining returns how many calls would be admitted right now.
	Remaining(ctx context.Context) int

	Stats() Stats
}

// Stats is a point-in-time view of a limiter.
type Stats struct {
	Capacity int           `json:"capacity"`
	Window   time.Duration `json:"window"`
	InWindow int           `json:"in_window"`
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// WindowLimiter caps admitted calls within a trailing window. Timestamps are kept
// in admission order, so pruning only ever drops from the front.
type WindowLimiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	clock    Clock
	stamps   []time.Time
}

// NewWindowLimiter creates a limiter; defaults are 50 calls per hour.
func NewWindowLimiter(opts ...Option) *WindowLimiter {
	l := &WindowLimiter{
		capacity: defaultCapacity,
		window:   defaultWindow,
		clock:    realClock{},
	}

	for _, opt := range opts {
		opt(l)
	}

	l.stamps = make([]time.Time, 0, l.capacity)
	return l
}

// TryAcquire prunes expired timestamps, then admits the call if there is room.
// Cleanup, count check and append happen under a single lock.
func (l *WindowLimiter) TryAcquire(_ context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.pruneLocked(now)

	if len(l.stamps) >= l.capacity {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Remaining returns the free slots after pruning.
func (l *WindowLimiter) Remaining(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.clock.Now())
	return l.capacity - len(l.stamps)
}

// Stats returns the configured limits and the current occupancy.
func (l *WindowLimiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.clock.Now())
	return Stats{
		Capacity: l.capacity,
		Window:   l.window,
		InWindow: len(l.stamps),
	}
}

// Capacity returns the configured maximum.
func (l *WindowLimiter) Capacity() int { return l.capacity }

// Window returns the configured lookback.
func (l *WindowLimiter) Window() time.Duration { return l.window }

// pruneLocked drops timestamps with now - t >= window.
// Must be called with l.mu held.
func (l *WindowLimiter) pruneLocked(now time.Time) {
	keep := 0
	for keep < len(l.stamps) && now.Sub(l.stamps[keep]) >= l.window {
		keep++
	}
	if keep == 0 {
		return
	}
	n := copy(l.stamps, l.stamps[keep:])
	l.stamps = l.stamps[:n]
}
