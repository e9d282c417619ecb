package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnknownField   = errors.New("unknown field")
	ErrMissingField   = errors.New("missing field")
	ErrDuplicateField = errors.New("duplicate field")
	ErrNotNumeric     = errors.New("value is not numeric")
	ErrPanic          = errors.New("handler panic")
)

// NewKind returns kind annotated with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with op and kind so both stay matchable with errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
