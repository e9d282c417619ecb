package modelstore

import (
	"time"

	"github.com/okian/cropadvisor/pkg/logger"
)

const (
	defaultDebounce      = 200 * time.Millisecond
	defaultRetryInterval = 5 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLoadFunc replaces the file loader.
func WithLoadFunc(fn LoadFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.load = fn
		}
	}
}

// WithDebounce sets how long Watch waits for writes to settle before reloading.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithRetryInterval sets how often Snapshot may re-read a model that failed to load.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.retry = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
