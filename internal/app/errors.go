package service

import "errors"

// Sentinel kinds for aborted predictions.
var (
	ErrModelLoad    = errors.New("crop model unavailable")
	ErrInvalidInput = errors.New("invalid input")
)
