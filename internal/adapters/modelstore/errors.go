package modelstore

import "errors"

// Sentinel kinds for model store errors.
var (
	ErrNotLoaded    = errors.New("model not loaded")
	ErrUnknownModel = errors.New("unknown model")
)
