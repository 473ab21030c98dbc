package allocation

import (
	"context"

	"carwash/pkg/model"
)

// Directory is the identity directory holding professional records.
type Directory interface {
	ListProfessionalsCoveringArea(ctx context.Context, areaID int) ([]model.Professional, error)
}

// Store is the narrow slice of the booking store the allocator reads and writes.
type Store interface {
	// CountOpenAllocations counts the professional's allocations whose status is not in excludedStatuses.
	CountOpenAllocations(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error)
	// ListActiveAllocationsForProfessional returns the windows of assigned or confirmed allocations
	// whose booking is neither cancelled nor completed.
	ListActiveAllocationsForProfessional(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error)
	// CreateAllocation fills in the generated ID. A second active allocation for the same booking
	// fails with an error wrapping ErrCommitConflict.
	CreateAllocation(ctx context.Context, allocation *model.Allocation) error
	SetBookingStatus(ctx context.Context, bookingID, status string) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker hands out advisory locks. Acquire gives up with ErrLockBusy once its wait budget is spent.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// Notifier must not block the caller and never reports failure back.
type Notifier interface {
	NotifyBookingOutcome(ctx context.Context, booking *model.Booking, outcome Outcome)
}

type Outcome struct {
	Status       string              `json:"status"`
	Allocation   *model.Allocation   `json:"allocation,omitempty"`
	Professional *model.Professional `json:"professional,omitempty"`
	Candidates   int                 `json:"candidates"`
	Probed       int                 `json:"probed"`
}

type RankedCandidate struct {
	Professional    model.Professional
	OpenAllocations int64
}
