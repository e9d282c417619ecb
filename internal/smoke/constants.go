package smoke

import "time"

// Defaults for a smoke run.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultRequests = 1
	DefaultTimeout  = 30 * time.Second

	// rateLimitPrefix starts the enrichment text of a rejected call.
	rateLimitPrefix = "Rate limit of "
)
