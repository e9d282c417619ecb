package enrichment

import (
	"time"

	"github.com/okian/cropadvisor/pkg/logger"
)

// Option configures a GeminiClient.
type Option func(*GeminiClient)

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(c *GeminiClient) {
		if name != "" {
			c.model = name
		}
	}
}

// WithAPIVersion sets the API version used by the SDK.
func WithAPIVersion(v string) Option {
	return func(c *GeminiClient) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(failures int, open time.Duration) Option {
	return func(c *GeminiClient) {
		if failures > 0 {
			c.breakerFailures = uint32(failures)
		}
		if open > 0 {
			c.breakerOpen = open
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *GeminiClient) {
		if l != nil {
			c.log = l
		}
	}
}
