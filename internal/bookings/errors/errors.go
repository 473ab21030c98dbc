package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrActiveAllocationExists is returned by the store when a booking already has an allocation
	// that is neither cancelled nor rejected.
	ErrActiveAllocationExists = errors.New("booking already has an active allocation")

	ErrInvalidTransition = errors.New("allocation status transition not allowed")

	// ErrStatusChanged is returned by a conditional status write when the booking has moved on.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrStartInPast = errors.New("start time must be in the future")
)
