package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"carwash/internal/allocation"
	bookingserrors "carwash/internal/bookings/errors"
	"carwash/internal/bookings/repository"
	"carwash/internal/bookings/validator"
	"carwash/pkg/config"
	apperrors "carwash/pkg/errors"
	"carwash/pkg/model"
	"carwash/pkg/sanitizer"
)

// ServiceCatalog resolves a catalog entry to its duration. Unknown IDs surface as an AppError
// with CodeNotFound.
type ServiceCatalog interface {
	GetServiceDuration(ctx context.Context, serviceID string) (int, error)
}

type Allocator interface {
	Allocate(ctx context.Context, booking *model.Booking) (*allocation.Outcome, error)
	Reallocate(ctx context.Context, booking *model.Booking, excludedProfessionals []string) (*allocation.Outcome, error)
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	catalog   ServiceCatalog
	allocator Allocator
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	catalog ServiceCatalog,
	allocator Allocator,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		catalog:   catalog,
		allocator: allocator,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create persists the booking as pending and runs allocation before returning, so the caller
// always sees assigned, not_serviceable or no_professionals_available. A transient allocation
// failure returns 503 and leaves the stored booking pending.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
	s.sanitize(req)
	if err := s.validator.Validate(req, s.now()); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "customer_id", req.CustomerID, "error", err)
		return nil, validationError("Booking validation failed", err)
	}

	duration, err := s.catalog.GetServiceDuration(ctx, req.ServiceID)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeNotFound {
			return nil, apperrors.Validation("Unknown service", map[string]any{"service_id": req.ServiceID})
		}
		s.cfg.Log.Error("Failed to load service duration", "service_id", req.ServiceID, "error", err)
		return nil, apperrors.Unavailable("Service catalog").WithCause(err)
	}

	booking := &model.Booking{
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceID:       req.ServiceID,
		LocationID:      req.LocationID,
		Address:         req.Address,
		StartTime:       req.StartTime.UTC(),
		DurationMinutes: duration,
		EndTime:         req.StartTime.UTC().Add(time.Duration(duration) * time.Minute),
		Status:          model.BookingPending,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "customer_id", req.CustomerID, "error", err)
		return nil, apperrors.Unavailable("Booking store").WithCause(err)
	}

	outcome, err := s.allocator.Allocate(ctx, booking)
	if err != nil {
		return nil, s.allocationError(booking, err)
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"customer_id", booking.CustomerID,
		"location_id", booking.LocationID,
		"start_time", booking.StartTime,
		"status", outcome.Status,
	)
	return &model.BookingResult{Booking: booking, Allocation: outcome.Allocation}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if customerID == "" {
		return nil, 0, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByCustomer(ctx, customerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count customer bookings", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list customer bookings",
				"customer_id", customerID,
				"limit", limit,
				"offset", offset,
				"error", errFind,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.CustomerID = sanitizer.TrimAndNormalize(req.CustomerID)
	req.CustomerName = sanitizer.SanitizeName(req.CustomerName)
	req.CustomerEmail = sanitizer.SanitizeEmail(req.CustomerEmail)
	req.Address = sanitizer.SanitizeAddress(req.Address)
	req.ServiceID = sanitizer.TrimAndNormalize(req.ServiceID)
	if req.CustomerPhone != "" {
		if phone := sanitizer.SanitizePhone(req.CustomerPhone); phone != "" {
			req.CustomerPhone = phone
		}
	}
}

func (s *bookingService) allocationError(booking *model.Booking, err error) error {
	var transientErr *allocation.TransientError
	if errors.As(err, &transientErr) {
		s.cfg.Log.Warn("Allocation deferred, booking left pending",
			"booking_id", booking.ID,
			"source", transientErr.Source,
			"error", err,
		)
		return apperrors.Unavailable("Professional allocation").
			WithDetails(map[string]any{"booking_id": booking.ID}).
			WithCause(err)
	}
	if errors.Is(err, allocation.ErrInvalidBooking) || errors.Is(err, allocation.ErrBookingNotPending) {
		return apperrors.Conflict(err.Error())
	}
	s.cfg.Log.Error("Allocation failed", "booking_id", booking.ID, "error", err)
	return apperrors.Internal("Failed to allocate booking", err)
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
