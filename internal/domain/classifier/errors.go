package classifier

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrModelNotFound  = errors.New("model file not found")
	ErrModelCorrupt   = errors.New("model file corrupt")
	ErrSchemaMismatch = errors.New("column schema mismatch")
	ErrInvalidInput   = errors.New("invalid input")
)
