package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carwash/pkg/contracts"
	apperrors "carwash/pkg/errors"
	"carwash/pkg/logger"
	"carwash/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock services for testing
type mockBookingService struct {
	createFunc        func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error)
	getByCustomerFunc func(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
	return m.createFunc(ctx, req)
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.getByCustomerFunc(ctx, customerID, limit, offset)
}

type mockAllocationService struct {
	updateFunc func(ctx context.Context, id string, update *model.AllocationStatusUpdate) (*model.BookingResult, error)
}

func (m *mockAllocationService) GetAssignments(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, int64, error) {
	return []*model.Assignment{}, 0, nil
}

func (m *mockAllocationService) UpdateStatus(ctx context.Context, id string, update *model.AllocationStatusUpdate) (*model.BookingResult, error) {
	return m.updateFunc(ctx, id, update)
}

func newRouter(handlers ...contracts.Handler) *httprouter.Router {
	router := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}
	return router
}

func TestCreate_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     *model.BookingResult
		err        error
		wantStatus int
		wantState  string
	}{
		{
			name:       "assigned",
			body:       `{"customer_id":"c-1","service_id":"s-1","location_id":7}`,
			result:     &model.BookingResult{Booking: &model.Booking{ID: "b-1", Status: model.BookingAssigned}},
			wantStatus: http.StatusCreated,
			wantState:  model.BookingAssigned,
		},
		{
			name:       "exhausted is still created",
			body:       `{"customer_id":"c-1","service_id":"s-1","location_id":7}`,
			result:     &model.BookingResult{Booking: &model.Booking{ID: "b-1", Status: model.BookingNoProfessionalsAvailable}},
			wantStatus: http.StatusCreated,
			wantState:  model.BookingNoProfessionalsAvailable,
		},
		{
			name:       "transient failure",
			body:       `{"customer_id":"c-1","service_id":"s-1","location_id":7}`,
			err:        apperrors.Unavailable("Professional allocation"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "malformed body",
			body:       `{"customer_id":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.BookingResult, error) {
				if req.LocationID != 7 {
					t.Errorf("location_id = %d, want 7", req.LocationID)
				}
				return tt.result, tt.err
			}}
			router := newRouter(NewBookingHandler(svc, logger.Discard()))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantState == "" {
				return
			}

			var body struct {
				Data model.BookingResult `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Data.Booking.Status != tt.wantState {
				t.Errorf("booking status = %s, want %s", body.Data.Booking.Status, tt.wantState)
			}
		})
	}
}

func TestGetByCustomer_Pagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	svc := &mockBookingService{getByCustomerFunc: func(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
		if customerID != "cust-42" {
			t.Errorf("customer_id = %s", customerID)
		}
		gotLimit, gotOffset = limit, offset
		return []*model.Booking{}, 0, nil
	}}
	router := newRouter(NewBookingHandler(svc, logger.Discard()))

	tests := []struct {
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{"", http.StatusOK, 10, 0},
		{"?limit=500&offset=-3", http.StatusOK, 100, 0},
		{"?limit=5&offset=20", http.StatusOK, 5, 20},
		{"?limit=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			gotLimit, gotOffset = 0, 0
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/customer/cust-42"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestUpdateStatus_PassesPathID(t *testing.T) {
	svc := &mockAllocationService{updateFunc: func(ctx context.Context, id string, update *model.AllocationStatusUpdate) (*model.BookingResult, error) {
		if id != "a-1" || update.Status != model.AllocationConfirmed {
			t.Errorf("got id=%s status=%s", id, update.Status)
		}
		return &model.BookingResult{Booking: &model.Booking{ID: "b-1", Status: model.BookingConfirmed}}, nil
	}}
	router := newRouter(NewAllocationHandler(svc, logger.Discard()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/allocations/id/a-1", strings.NewReader(`{"status":"confirmed"}`)))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		pingers    map[string]contracts.Pinger
		wantStatus int
	}{
		{"all healthy", map[string]contracts.Pinger{
			"store":     func(ctx context.Context) error { return nil },
			"directory": func(ctx context.Context) error { return nil },
		}, http.StatusOK},
		{"store down", map[string]contracts.Pinger{
			"store": func(ctx context.Context) error { return errors.New("no reachable servers") },
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(NewHealthHandler(tt.pingers, logger.Discard()))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
