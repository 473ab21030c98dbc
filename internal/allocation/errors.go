package allocation

import (
	"errors"
	"fmt"
)

const (
	SourceDirectory = "directory"
	SourceStore     = "store"
)

var (
	ErrInvalidBooking    = errors.New("invalid booking for allocation")
	ErrBookingNotPending = errors.New("booking is not pending")

	// ErrCommitConflict means another allocation won the race for this booking or professional.
	// The allocator moves on to the next candidate.
	ErrCommitConflict = errors.New("allocation commit conflict")

	ErrLockBusy = errors.New("allocation lock busy")
)

// TransientError is a collaborator failure that happened before a terminal decision. The booking
// is still pending and the whole allocation may be retried.
type TransientError struct {
	Source string
	Op     string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Source, e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var transientErr *TransientError
	return errors.As(err, &transientErr)
}

func directoryError(op string, err error) error {
	return &TransientError{Source: SourceDirectory, Op: op, Err: err}
}

func storeError(op string, err error) error {
	return &TransientError{Source: SourceStore, Op: op, Err: err}
}
