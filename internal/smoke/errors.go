package smoke

import "errors"

// Sentinel errors for smoke runs.
var (
	ErrUnhealthy     = errors.New("service is not healthy")
	ErrInvalidConfig = errors.New("invalid smoke config")
	ErrFailures      = errors.New("predictions failed")
)
