package store

import "errors"

var (
	// ErrNotInitialized is returned when an operation runs before Init.
	// This is always a programming error in the caller.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input: missing required
	// fields, invalid enum values, or constraint violations such as a
	// duplicate part position.
	ErrValidation = errors.New("validation failed")
)
