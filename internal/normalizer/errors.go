package normalizer

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned by Extract for an empty or blank transcript.
	ErrEmptyInput = errors.New("transcript is empty")
	// ErrInvalidInput is matched by every *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidInputError names the approval field that was rejected.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }
