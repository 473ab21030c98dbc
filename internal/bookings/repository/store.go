package repository

import (
	"context"
	"errors"
	"fmt"

	"carwash/internal/allocation"
	bookingserrors "carwash/internal/bookings/errors"
	"carwash/pkg/model"
)

type allocationStore struct {
	bookings    BookingRepository
	allocations AllocationRepository
	tx          Transactor
}

func NewAllocationStore(bookings BookingRepository, allocations AllocationRepository, tx Transactor) allocation.Store {
	return &allocationStore{
		bookings:    bookings,
		allocations: allocations,
		tx:          tx,
	}
}

func (s *allocationStore) CountOpenAllocations(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error) {
	return s.allocations.CountOpen(ctx, professionalID, excludedStatuses)
}

func (s *allocationStore) ListActiveAllocationsForProfessional(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error) {
	return s.allocations.ListActiveIntervals(ctx, professionalID)
}

func (s *allocationStore) CreateAllocation(ctx context.Context, a *model.Allocation) error {
	err := s.allocations.Create(ctx, a)
	if errors.Is(err, bookingserrors.ErrActiveAllocationExists) {
		return fmt.Errorf("%w: %w", allocation.ErrCommitConflict, err)
	}
	return err
}

// SetBookingStatus only moves pending bookings, so a losing allocation run can never overwrite
// the outcome of the one that won.
func (s *allocationStore) SetBookingStatus(ctx context.Context, bookingID, status string) error {
	err := s.bookings.TransitionStatus(ctx, bookingID, model.BookingPending, status)
	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		return fmt.Errorf("%w: %w", allocation.ErrBookingNotPending, err)
	}
	return err
}

func (s *allocationStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.WithinTransaction(ctx, fn)
}
