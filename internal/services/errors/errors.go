package errors

import "errors"

var (
	// ErrNotFound is returned when a catalog service is not found by ID
	ErrNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid service ID format")
)
