package repository

import (
	"context"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/config"
	"carwash/pkg/model"
)

const (
	BookingsCollection    = "Bookings"
	AllocationsCollection = "Professional_allocations"
	LocksCollection       = "Allocation_locks"

	BookingsTable    = "bookings"
	AllocationsTable = "professional_allocations"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	SetStatus(ctx context.Context, id, status string) error
	// TransitionStatus writes to only while the stored status is still from.
	TransitionStatus(ctx context.Context, id, from, to string) error
}

type AllocationRepository interface {
	Create(ctx context.Context, allocation *model.Allocation) error
	FindByID(ctx context.Context, id string) (*model.Allocation, error)
	FindByProfessional(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, error)
	CountByProfessional(ctx context.Context, professionalID string) (int64, error)
	// FindProfessionalsByBooking lists every professional that ever held the booking, in any status.
	FindProfessionalsByBooking(ctx context.Context, bookingID string) ([]string, error)
	// UpdateStatus moves the allocation from one status to another and fails with ErrStatusChanged
	// when a concurrent writer got there first.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error
	CountOpen(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error)
	ListActiveIntervals(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error)
}

// Transactor runs fn in one store transaction. Repositories called with the context handed to fn
// take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles the backend selected by STORE_DRIVER.
type Repositories struct {
	Bookings    BookingRepository
	Allocations AllocationRepository
	Locks       allocation.Locker
	Tx          Transactor
}

func New(cfg *config.Config) *Repositories {
	if cfg.StoreDriver == config.StoreDriverMySQL {
		return &Repositories{
			Bookings:    NewMySQLBookingRepository(cfg),
			Allocations: NewMySQLAllocationRepository(cfg),
			Locks:       NewMySQLLockRepository(cfg),
			Tx:          NewMySQLTransactor(cfg),
		}
	}
	return &Repositories{
		Bookings:    NewMongoBookingRepository(cfg),
		Allocations: NewMongoAllocationRepository(cfg),
		Locks:       NewMongoLockRepository(cfg),
		Tx:          NewMongoTransactor(cfg),
	}
}

// AllocationStore exposes the repositories to the allocator.
func (r *Repositories) AllocationStore() allocation.Store {
	return NewAllocationStore(r.Bookings, r.Allocations, r.Tx)
}
