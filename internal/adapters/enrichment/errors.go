package enrichment

import "errors"

// Sentinel kinds for enrichment errors.
var (
	ErrNotConfigured = errors.New("GOOGLE_API_KEY environment variable not set")
	ErrBreakerOpen   = errors.New("enrichment temporarily disabled after repeated failures")
	ErrEmptyResponse = errors.New("empty response from model")
)
