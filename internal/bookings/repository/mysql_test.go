package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"carwash/internal/allocation"
	bookingserrors "carwash/internal/bookings/errors"
	"carwash/pkg/client"
	"carwash/pkg/config"
	"carwash/pkg/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func newMockConfig(t *testing.T) (*config.Config, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &config.Config{
		StoreCallTimeout:   time.Second,
		AllocationLockWait: 2 * time.Second,
		Client:             &client.Client{MySQL: db},
	}, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sql expectations: %v", err)
	}
}

// ────────────────────────────────────────────────
// Bookings
// ────────────────────────────────────────────────

func TestMySQLBooking_CreateAssignsID(t *testing.T) {
	cfg, mock := newMockConfig(t)
	repo := NewMySQLBookingRepository(cfg)

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))

	b := &model.Booking{CustomerID: "c-1", LocationID: 7, DurationMinutes: 60, Status: model.BookingPending}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.ID == "" || b.CreatedAt.IsZero() {
		t.Errorf("Create() did not set id/created_at: %+v", b)
	}
	expectationsMet(t, mock)
}

func TestMySQLBooking_FindByID(t *testing.T) {
	id := "6f1b0c9e-2f5c-4a53-9d55-1c0e6b7f9a10"
	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		rows := sqlmock.NewRows([]string{
			"id", "customer_id", "customer_name", "customer_email", "customer_phone", "service_id",
			"location_id", "location_address", "start_time", "duration_minutes", "end_time", "status", "created_at", "updated_at",
		}).AddRow(id, "c-1", "Asha", "asha@example.com", nil, "s-1", 7, "12 MG Road", start, 60, start.Add(time.Hour), "assigned", start, start)
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ?").WithArgs(id).WillReturnRows(rows)

		b, err := NewMySQLBookingRepository(cfg).FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if b.LocationID != 7 || b.Status != model.BookingAssigned || b.CustomerPhone != "" {
			t.Errorf("unexpected booking %+v", b)
		}
		expectationsMet(t, mock)
	})

	t.Run("missing", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectQuery("SELECT (.+) FROM bookings").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewMySQLBookingRepository(cfg).FindByID(context.Background(), id)
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		_, err := NewMySQLBookingRepository(cfg).FindByID(context.Background(), "not-a-uuid")
		if !errors.Is(err, bookingserrors.ErrInvalidID) {
			t.Errorf("error = %v, want ErrInvalidID", err)
		}
		expectationsMet(t, mock)
	})
}

func TestMySQLBooking_SetStatusMissingBooking(t *testing.T) {
	cfg, mock := newMockConfig(t)
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(model.BookingAssigned, sqlmock.AnyArg(), "b-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").WithArgs("b-404").WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := NewMySQLBookingRepository(cfg).SetStatus(context.Background(), "b-404", model.BookingAssigned)
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestMySQLBooking_TransitionStatus(t *testing.T) {
	t.Run("moves a pending booking", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE bookings SET status").
			WithArgs(model.BookingNoProfessionalsAvailable, sqlmock.AnyArg(), "b-1", model.BookingPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewMySQLBookingRepository(cfg).TransitionStatus(context.Background(), "b-1", model.BookingPending, model.BookingNoProfessionalsAvailable)
		if err != nil {
			t.Errorf("TransitionStatus() error = %v", err)
		}
		expectationsMet(t, mock)
	})

	t.Run("booking already assigned", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM bookings").WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.BookingAssigned))

		err := NewMySQLBookingRepository(cfg).TransitionStatus(context.Background(), "b-1", model.BookingPending, model.BookingNoProfessionalsAvailable)
		if !errors.Is(err, bookingserrors.ErrStatusChanged) {
			t.Errorf("error = %v, want ErrStatusChanged", err)
		}
		expectationsMet(t, mock)
	})

	t.Run("rows affected error is returned", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE bookings SET status").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("driver lost result")))

		err := NewMySQLBookingRepository(cfg).TransitionStatus(context.Background(), "b-1", model.BookingPending, model.BookingAssigned)
		if err == nil {
			t.Errorf("expected error when affected rows are unknown")
		}
		expectationsMet(t, mock)
	})

	t.Run("missing booking", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM bookings").WithArgs("b-404").WillReturnRows(sqlmock.NewRows([]string{"status"}))

		err := NewMySQLBookingRepository(cfg).TransitionStatus(context.Background(), "b-404", model.BookingPending, model.BookingAssigned)
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		expectationsMet(t, mock)
	})
}

// ────────────────────────────────────────────────
// Allocations
// ────────────────────────────────────────────────

func TestMySQLAllocation_CreateDuplicateIsActiveAllocationExists(t *testing.T) {
	cfg, mock := newMockConfig(t)
	mock.ExpectExec("INSERT INTO professional_allocations").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_active_allocation'"})

	a := &model.Allocation{BookingID: "b-1", ProfessionalID: "P1", Status: model.AllocationAssigned}
	err := NewMySQLAllocationRepository(cfg).Create(context.Background(), a)
	if !errors.Is(err, bookingserrors.ErrActiveAllocationExists) {
		t.Errorf("error = %v, want ErrActiveAllocationExists", err)
	}
	expectationsMet(t, mock)
}

func TestMySQLAllocation_UpdateStatus(t *testing.T) {
	at := time.Date(2026, time.November, 2, 9, 0, 0, 0, time.UTC)

	t.Run("updates from the expected status", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE professional_allocations SET status").
			WithArgs(model.AllocationConfirmed, at, "a-1", model.AllocationAssigned).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewMySQLAllocationRepository(cfg).UpdateStatus(context.Background(), "a-1", model.AllocationAssigned, model.AllocationConfirmed, at)
		if err != nil {
			t.Errorf("UpdateStatus() error = %v", err)
		}
		expectationsMet(t, mock)
	})

	t.Run("concurrent change is ErrStatusChanged", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE professional_allocations SET status").
			WithArgs(model.AllocationRejected, at, "a-1", model.AllocationAssigned).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM professional_allocations").WithArgs("a-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.AllocationConfirmed))

		err := NewMySQLAllocationRepository(cfg).UpdateStatus(context.Background(), "a-1", model.AllocationAssigned, model.AllocationRejected, at)
		if !errors.Is(err, bookingserrors.ErrStatusChanged) {
			t.Errorf("error = %v, want ErrStatusChanged", err)
		}
		expectationsMet(t, mock)
	})

	t.Run("missing allocation", func(t *testing.T) {
		cfg, mock := newMockConfig(t)
		mock.ExpectExec("UPDATE professional_allocations SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM professional_allocations").WithArgs("a-404").
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		err := NewMySQLAllocationRepository(cfg).UpdateStatus(context.Background(), "a-404", model.AllocationAssigned, model.AllocationConfirmed, at)
		if !errors.Is(err, bookingserrors.ErrAllocationNotFound) {
			t.Errorf("error = %v, want ErrAllocationNotFound", err)
		}
		expectationsMet(t, mock)
	})
}

func TestMySQLAllocation_CountOpenExcludesStatuses(t *testing.T) {
	cfg, mock := newMockConfig(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM professional_allocations WHERE professional_id = \? AND status NOT IN \(\?, \?\)`).
		WithArgs("P1", model.AllocationCompleted, model.AllocationRejected).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewMySQLAllocationRepository(cfg).CountOpen(context.Background(), "P1",
		[]string{model.AllocationCompleted, model.AllocationRejected})
	if err != nil {
		t.Fatalf("CountOpen() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountOpen() = %d, want 3", n)
	}
	expectationsMet(t, mock)
}

func TestMySQLAllocation_ListActiveIntervals(t *testing.T) {
	cfg, mock := newMockConfig(t)
	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT b.id, b.start_time, b.duration_minutes").
		WithArgs("P1", model.AllocationAssigned, model.AllocationConfirmed, model.BookingCancelled, model.BookingCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "duration_minutes"}).
			AddRow("b-1", start, 60).
			AddRow("b-2", start.Add(2*time.Hour), 30))

	intervals, err := NewMySQLAllocationRepository(cfg).ListActiveIntervals(context.Background(), "P1")
	if err != nil {
		t.Fatalf("ListActiveIntervals() error = %v", err)
	}
	if len(intervals) != 2 || intervals[1].End() != start.Add(150*time.Minute) {
		t.Errorf("unexpected intervals %+v", intervals)
	}
	expectationsMet(t, mock)
}

// ────────────────────────────────────────────────
// Locks and transactions
// ────────────────────────────────────────────────

func TestMySQLLock_AcquireAndRelease(t *testing.T) {
	cfg, mock := newMockConfig(t)
	mock.ExpectQuery(`SELECT GET_LOCK\(\?, \?\)`).
		WithArgs("carwash:professional:P1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(1))
	mock.ExpectExec(`DO RELEASE_LOCK\(\?\)`).
		WithArgs("carwash:professional:P1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	release, err := NewMySQLLockRepository(cfg).Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := release(context.Background()); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestMySQLLock_TimeoutIsBusy(t *testing.T) {
	cfg, mock := newMockConfig(t)
	mock.ExpectQuery(`SELECT GET_LOCK`).WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(0))

	_, err := NewMySQLLockRepository(cfg).Acquire(context.Background(), "professional:P1")
	if !errors.Is(err, allocation.ErrLockBusy) {
		t.Errorf("error = %v, want ErrLockBusy", err)
	}
	expectationsMet(t, mock)
}

func TestAllocationStore_CommitOverMySQL(t *testing.T) {
	cfg, mock := newMockConfig(t)
	store := NewAllocationStore(NewMySQLBookingRepository(cfg), NewMySQLAllocationRepository(cfg), NewMySQLTransactor(cfg))

	t.Run("commits allocation and booking status together", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO professional_allocations").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE bookings SET status").
			WithArgs(model.BookingAssigned, sqlmock.AnyArg(), "b-1", model.BookingPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		committed, err := allocation.NewCommitter(store, time.Second).Commit(context.Background(), "b-1", "P1")
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if committed.ID == "" || committed.Status != model.AllocationAssigned {
			t.Errorf("unexpected allocation %+v", committed)
		}
		expectationsMet(t, mock)
	})

	t.Run("booking no longer pending rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO professional_allocations").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM bookings").WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.BookingCancelled))
		mock.ExpectRollback()

		_, err := allocation.NewCommitter(store, time.Second).Commit(context.Background(), "b-1", "P1")
		if !errors.Is(err, allocation.ErrBookingNotPending) {
			t.Errorf("error = %v, want ErrBookingNotPending", err)
		}
		if allocation.IsTransient(err) {
			t.Errorf("not-pending booking must not be reported as transient")
		}
		expectationsMet(t, mock)
	})

	t.Run("duplicate active allocation is a commit conflict", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO professional_allocations").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
		mock.ExpectRollback()

		_, err := allocation.NewCommitter(store, time.Second).Commit(context.Background(), "b-1", "P2")
		if !errors.Is(err, allocation.ErrCommitConflict) {
			t.Errorf("error = %v, want ErrCommitConflict", err)
		}
		expectationsMet(t, mock)
	})
}
