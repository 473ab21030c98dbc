package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"carwash/internal/allocation"
	"carwash/internal/bookings/repository"
	apperrors "carwash/pkg/errors"
	"carwash/pkg/model"
)

func newTestAllocationService(t *testing.T, status string) (*allocationService, *mockBookingRepository, *mockAllocationRepository, *mockAllocator, *recordingStatusNotifier) {
	t.Helper()
	bookings := newMockBookingRepository()
	_ = bookings.Create(context.Background(), &model.Booking{ID: "b-1", CustomerID: "cust-42", Status: model.BookingStatusForAllocation(status)})

	existing := &model.Allocation{ID: "a-1", BookingID: "b-1", ProfessionalID: "P1"}
	existing.SetStatus(status, fixedNow)
	allocations := &mockAllocationRepository{allocations: map[string]*model.Allocation{"a-1": existing}}

	alloc := &mockAllocator{}
	notifier := &recordingStatusNotifier{}
	repos := &repository.Repositories{Bookings: bookings, Allocations: allocations, Tx: passthroughTx{}}

	svc := NewAllocationService(repos, alloc, notifier, testValidator(), testConfig()).(*allocationService)
	return svc, bookings, allocations, alloc, notifier
}

func TestUpdateStatus_ConfirmMirrorsBooking(t *testing.T) {
	svc, bookings, _, _, notifier := newTestAllocationService(t, model.AllocationAssigned)

	result, err := svc.UpdateStatus(context.Background(), "a-1", &model.AllocationStatusUpdate{Status: model.AllocationConfirmed})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if result.Allocation.Status != model.AllocationConfirmed {
		t.Errorf("allocation status = %s", result.Allocation.Status)
	}
	if stored, _ := bookings.FindByID(context.Background(), "b-1"); stored.Status != model.BookingConfirmed {
		t.Errorf("booking status = %s, want confirmed", stored.Status)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != model.AllocationConfirmed {
		t.Errorf("notifications = %v", notifier.statuses)
	}
}

func TestUpdateStatus_RejectReallocatesExcludingPreviousProfessionals(t *testing.T) {
	svc, _, allocations, alloc, _ := newTestAllocationService(t, model.AllocationAssigned)
	allocations.professionals = []string{"P1", "P0"}

	var gotExcluded []string
	alloc.reallocateFn = func(ctx context.Context, b *model.Booking, excluded []string) (*allocation.Outcome, error) {
		if b.Status != model.BookingPending {
			t.Errorf("reallocation received status %s, want pending", b.Status)
		}
		gotExcluded = excluded
		b.Status = model.BookingAssigned
		return &allocation.Outcome{
			Status:     model.BookingAssigned,
			Allocation: &model.Allocation{ID: "a-2", BookingID: b.ID, ProfessionalID: "P3", Status: model.AllocationAssigned},
		}, nil
	}

	result, err := svc.UpdateStatus(context.Background(), "a-1", &model.AllocationStatusUpdate{Status: model.AllocationRejected})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if len(gotExcluded) != 2 {
		t.Errorf("excluded = %v, want both previous professionals", gotExcluded)
	}
	if result.Booking.Status != model.BookingAssigned || result.Allocation.ProfessionalID != "P3" {
		t.Errorf("got %s / %+v", result.Booking.Status, result.Allocation)
	}
}

func TestUpdateStatus_RejectWithTransientReallocationLeavesPending(t *testing.T) {
	svc, _, _, alloc, _ := newTestAllocationService(t, model.AllocationAssigned)
	alloc.reallocateFn = func(ctx context.Context, b *model.Booking, excluded []string) (*allocation.Outcome, error) {
		return nil, &allocation.TransientError{Source: allocation.SourceStore, Op: "count", Err: errors.New("timeout")}
	}

	result, err := svc.UpdateStatus(context.Background(), "a-1", &model.AllocationStatusUpdate{Status: model.AllocationRejected})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if result.Booking.Status != model.BookingPending || result.Allocation != nil {
		t.Errorf("got %s / %+v, want pending without allocation", result.Booking.Status, result.Allocation)
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		id         string
		next       string
		wantStatus int
	}{
		{"invalid transition", model.AllocationConfirmed, "a-1", model.AllocationRejected, http.StatusConflict},
		{"terminal allocation", model.AllocationCompleted, "a-1", model.AllocationCancelled, http.StatusConflict},
		{"unknown status", model.AllocationAssigned, "a-1", "assigned", http.StatusUnprocessableEntity},
		{"missing allocation", model.AllocationAssigned, "a-404", model.AllocationConfirmed, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, notifier := newTestAllocationService(t, tt.current)

			_, err := svc.UpdateStatus(context.Background(), tt.id, &model.AllocationStatusUpdate{Status: tt.next})
			if got := apperrors.AsAppError(err).StatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
			if len(notifier.statuses) != 0 {
				t.Errorf("failed updates must not notify")
			}
		})
	}
}

func TestUpdateStatus_ConcurrentChangeIsConflict(t *testing.T) {
	svc, bookings, allocations, alloc, notifier := newTestAllocationService(t, model.AllocationAssigned)
	// The professional confirms between our read and our write.
	allocations.beforeUpdate = func() {
		allocations.allocations["a-1"].SetStatus(model.AllocationConfirmed, fixedNow)
	}

	_, err := svc.UpdateStatus(context.Background(), "a-1", &model.AllocationStatusUpdate{Status: model.AllocationRejected})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict || appErr.StatusCode() != http.StatusConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if got := allocations.allocations["a-1"].Status; got != model.AllocationConfirmed {
		t.Errorf("allocation status = %s, want confirmed kept", got)
	}
	if stored, _ := bookings.FindByID(context.Background(), "b-1"); stored.Status != model.BookingAssigned {
		t.Errorf("booking status = %s, want assigned untouched", stored.Status)
	}
	if alloc.received != nil {
		t.Errorf("booking must not be reallocated")
	}
	if len(notifier.statuses) != 0 {
		t.Errorf("notifications = %v, want none", notifier.statuses)
	}
}

func TestUpdateStatus_StoreFailureIsUnavailable(t *testing.T) {
	svc, _, allocations, _, _ := newTestAllocationService(t, model.AllocationAssigned)
	allocations.updateErr = errors.New("write conflict")

	_, err := svc.UpdateStatus(context.Background(), "a-1", &model.AllocationStatusUpdate{Status: model.AllocationConfirmed})
	if got := apperrors.AsAppError(err).Code; got != apperrors.CodeUnavailable {
		t.Errorf("code = %s, want %s", got, apperrors.CodeUnavailable)
	}
}

func TestGetAssignments(t *testing.T) {
	svc, _, _, _, _ := newTestAllocationService(t, model.AllocationAssigned)

	assignments, total, err := svc.GetAssignments(context.Background(), "P1", 10, 0)
	if err != nil {
		t.Fatalf("GetAssignments() error = %v", err)
	}
	if total != 1 || len(assignments) != 1 {
		t.Errorf("got %d assignments (total %d), want 1", len(assignments), total)
	}
}
