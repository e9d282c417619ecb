package ratelimit

import "time"

// Option applies a configuration option to the WindowLimiter.
type Option func(*WindowLimiter)

// WithCapacity sets the maximum number of admitted calls per window.
// Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(l *WindowLimiter) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

// WithWindow sets the lookback duration. Non-positive values are ignored.
func WithWindow(window time.Duration) Option {
	return func(l *WindowLimiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithClock injects the time source, mainly for tests.
func WithClock(clock Clock) Option {
	return func(l *WindowLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}
