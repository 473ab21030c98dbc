package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "carwash/internal/bookings/errors"
	"carwash/internal/bookings/repository"
	"carwash/internal/bookings/validator"
	"carwash/pkg/config"
	apperrors "carwash/pkg/errors"
	"carwash/pkg/model"
)

// StatusNotifier announces lifecycle changes after an allocation's status moves.
type StatusNotifier interface {
	NotifyStatusUpdate(ctx context.Context, booking *model.Booking, allocation *model.Allocation)
}

type AllocationService interface {
	GetAssignments(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, int64, error)
	UpdateStatus(ctx context.Context, id string, update *model.AllocationStatusUpdate) (*model.BookingResult, error)
}

type allocationService struct {
	bookings    repository.BookingRepository
	allocations repository.AllocationRepository
	tx          repository.Transactor
	allocator   Allocator
	notifier    StatusNotifier
	validator   *validator.BookingValidator
	cfg         *config.Config
	now         func() time.Time
}

func NewAllocationService(
	repos *repository.Repositories,
	allocator Allocator,
	notifier StatusNotifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) AllocationService {
	return &allocationService{
		bookings:    repos.Bookings,
		allocations: repos.Allocations,
		tx:          repos.Tx,
		allocator:   allocator,
		notifier:    notifier,
		validator:   validator,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *allocationService) GetAssignments(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, int64, error) {
	if professionalID == "" {
		return nil, 0, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	var count int64
	var assignments []*model.Assignment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.allocations.CountByProfessional(ctx, professionalID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count assignments", "professional_id", professionalID, "error", errCount)
			errCount = apperrors.Internal("Failed to count assignments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		assignments, errFind = s.allocations.FindByProfessional(ctx, professionalID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list assignments", "professional_id", professionalID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve assignments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return assignments, count, nil
}

// UpdateStatus moves an allocation along its lifecycle and mirrors the change on the booking.
// A rejection puts the booking back to pending and re-runs allocation without any professional
// that already held it.
func (s *allocationService) UpdateStatus(ctx context.Context, id string, update *model.AllocationStatusUpdate) (*model.BookingResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Allocation ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, validationError("Invalid status update", err)
	}

	current, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	if !model.CanTransitionAllocation(current.Status, update.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("%s: %s -> %s", bookingserrors.ErrInvalidTransition, current.Status, update.Status))
	}

	booking, err := s.bookings.FindByID(ctx, current.BookingID)
	if err != nil {
		return nil, s.lookupError(current.BookingID, err)
	}

	now := s.now().Truncate(time.Millisecond)
	bookingStatus := model.BookingStatusForAllocation(update.Status)

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.allocations.UpdateStatus(txCtx, id, current.Status, update.Status, now); err != nil {
			return err
		}
		return s.bookings.SetStatus(txCtx, booking.ID, bookingStatus)
	})
	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		s.cfg.Log.Info("Allocation changed concurrently", "id", id, "from", current.Status, "status", update.Status)
		return nil, apperrors.Conflict(fmt.Sprintf("%s: expected %s", bookingserrors.ErrStatusChanged, current.Status))
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update allocation status", "id", id, "status", update.Status, "error", err)
		return nil, apperrors.Unavailable("Booking store").WithCause(err)
	}

	current.SetStatus(update.Status, now)
	booking.Status = bookingStatus
	booking.UpdatedAt = now
	s.cfg.Log.Info("Allocation status updated",
		"id", id,
		"booking_id", booking.ID,
		"professional_id", current.ProfessionalID,
		"status", update.Status,
	)
	if s.notifier != nil {
		s.notifier.NotifyStatusUpdate(ctx, booking, current)
	}

	if update.Status != model.AllocationRejected {
		return &model.BookingResult{Booking: booking, Allocation: current}, nil
	}
	return s.reallocate(ctx, booking, current)
}

func (s *allocationService) reallocate(ctx context.Context, booking *model.Booking, rejected *model.Allocation) (*model.BookingResult, error) {
	excluded, err := s.allocations.FindProfessionalsByBooking(ctx, booking.ID)
	if err != nil {
		s.cfg.Log.Warn("Failed to load previous professionals, excluding only the last one", "booking_id", booking.ID, "error", err)
		excluded = []string{rejected.ProfessionalID}
	}

	outcome, err := s.allocator.Reallocate(ctx, booking, excluded)
	if err != nil {
		// The rejection itself is committed; the booking stays pending for a later retry.
		s.cfg.Log.Warn("Reallocation deferred", "booking_id", booking.ID, "error", err)
		return &model.BookingResult{Booking: booking}, nil
	}
	return &model.BookingResult{Booking: booking, Allocation: outcome.Allocation}, nil
}

func (s *allocationService) lookupError(id string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrAllocationNotFound):
		return apperrors.NotFoundWithID("Allocation", id)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid ID format")
	default:
		return apperrors.Internal("Failed to load allocation", err)
	}
}
