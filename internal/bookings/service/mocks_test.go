package service

import (
	"context"
	"sync"
	"time"

	"carwash/internal/allocation"
	bookingserrors "carwash/internal/bookings/errors"
	"carwash/internal/bookings/validator"
	"carwash/pkg/config"
	"carwash/pkg/logger"
	"carwash/pkg/model"
)

// ────────────────────────────────────────────────
// Mock repositories and collaborators
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	createFn func(ctx context.Context, b *model.Booking) error
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: map[string]*model.Booking{}}
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, b); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = "b-new"
	}
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	bookings, _ := m.FindByCustomer(ctx, customerID, 0, 0)
	return int64(len(bookings)), nil
}

func (m *mockBookingRepository) SetStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *mockBookingRepository) TransitionStatus(ctx context.Context, id, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if b.Status != from {
		return bookingserrors.ErrStatusChanged
	}
	b.Status = to
	return nil
}

type mockAllocationRepository struct {
	allocations   map[string]*model.Allocation
	updateErr     error
	professionals []string
	beforeUpdate  func()
}

func (m *mockAllocationRepository) Create(ctx context.Context, a *model.Allocation) error {
	m.allocations[a.ID] = a
	return nil
}

func (m *mockAllocationRepository) FindByID(ctx context.Context, id string) (*model.Allocation, error) {
	a, ok := m.allocations[id]
	if !ok {
		return nil, bookingserrors.ErrAllocationNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAllocationRepository) FindByProfessional(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, error) {
	var out []*model.Assignment
	for _, a := range m.allocations {
		if a.ProfessionalID == professionalID {
			out = append(out, &model.Assignment{Allocation: a})
		}
	}
	return out, nil
}

func (m *mockAllocationRepository) CountByProfessional(ctx context.Context, professionalID string) (int64, error) {
	out, _ := m.FindByProfessional(ctx, professionalID, 0, 0)
	return int64(len(out)), nil
}

func (m *mockAllocationRepository) FindProfessionalsByBooking(ctx context.Context, bookingID string) ([]string, error) {
	return m.professionals, nil
}

func (m *mockAllocationRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	a, ok := m.allocations[id]
	if !ok {
		return bookingserrors.ErrAllocationNotFound
	}
	if a.Status != from {
		return bookingserrors.ErrStatusChanged
	}
	a.SetStatus(to, at)
	return nil
}

func (m *mockAllocationRepository) CountOpen(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error) {
	return 0, nil
}

func (m *mockAllocationRepository) ListActiveIntervals(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error) {
	return nil, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockCatalog struct {
	durations map[string]int
	err       error
}

func (m *mockCatalog) GetServiceDuration(ctx context.Context, serviceID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	d, ok := m.durations[serviceID]
	if !ok {
		return 0, notFound(serviceID)
	}
	return d, nil
}

type mockAllocator struct {
	allocateFn   func(ctx context.Context, b *model.Booking) (*allocation.Outcome, error)
	reallocateFn func(ctx context.Context, b *model.Booking, excluded []string) (*allocation.Outcome, error)
	received     *model.Booking
}

func (m *mockAllocator) Allocate(ctx context.Context, b *model.Booking) (*allocation.Outcome, error) {
	m.received = b
	return m.allocateFn(ctx, b)
}

func (m *mockAllocator) Reallocate(ctx context.Context, b *model.Booking, excluded []string) (*allocation.Outcome, error) {
	m.received = b
	return m.reallocateFn(ctx, b, excluded)
}

type recordingStatusNotifier struct {
	statuses []string
}

func (n *recordingStatusNotifier) NotifyStatusUpdate(ctx context.Context, b *model.Booking, a *model.Allocation) {
	n.statuses = append(n.statuses, a.Status)
}

func testConfig() *config.Config {
	return &config.Config{Log: logger.Discard()}
}

func testValidator() *validator.BookingValidator {
	return validator.NewBookingValidator(logger.Discard())
}
