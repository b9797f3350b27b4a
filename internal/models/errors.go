package models

import "errors"

var (
	// ErrNotFound covers both a missing resource and one owned by someone
	// else; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means the request is valid but the resource is in the
	// wrong state for it.
	ErrConflict = errors.New("conflict")

	// ErrUpstreamUnavailable wraps failures of the embedding or generation
	// provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the configured embedding width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
