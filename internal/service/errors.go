package service

import "errors"

var (
	// ErrValidation marks missing or out-of-range caller input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition marks an operation attempted from a status that
	// does not allow it.
	ErrInvalidTransition = errors.New("invalid status transition")
)
