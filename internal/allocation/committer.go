package allocation

import (
	"context"
	"errors"
	"time"

	"carwash/pkg/model"
)

type Committer struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewCommitter(store Store, timeout time.Duration) *Committer {
	return &Committer{
		store:   store,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Commit creates the allocation and moves the booking to assigned in one transaction.
// A uniqueness violation comes back as ErrCommitConflict and a booking that left pending as
// ErrBookingNotPending. Anything else is a *TransientError.
func (c *Committer) Commit(ctx context.Context, bookingID, professionalID string) (*model.Allocation, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	now := c.now().Truncate(time.Millisecond)
	allocation := &model.Allocation{
		BookingID:      bookingID,
		ProfessionalID: professionalID,
		AssignedAt:     now,
	}
	allocation.SetStatus(model.AllocationAssigned, now)

	err := c.store.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := c.store.CreateAllocation(txCtx, allocation); err != nil {
			return err
		}
		return c.store.SetBookingStatus(txCtx, bookingID, model.BookingAssigned)
	})
	if err != nil {
		if errors.Is(err, ErrCommitConflict) || errors.Is(err, ErrBookingNotPending) {
			return nil, err
		}
		return nil, storeError("commit allocation", err)
	}
	return allocation, nil
}
