package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/kafka"
	"carwash/pkg/logger"
	"carwash/pkg/middleware"
	"carwash/pkg/model"
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type recordingProducer struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	sawCtx   []error
}

func (r *recordingProducer) Publish(ctx context.Context, msg kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sawCtx = append(r.sawCtx, ctx.Err())
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type stubServices struct{}

func (stubServices) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "svc-1" {
		return &model.Service{ID: id, Name: "Premium Wash"}, nil
	}
	return nil, errors.New("not found")
}

func testBooking(status string) *model.Booking {
	start := time.Date(2026, 11, 2, 4, 30, 0, 0, time.UTC)
	return &model.Booking{
		ID:              "b-1",
		CustomerName:    "Asha",
		CustomerEmail:   "asha@example.com",
		CustomerPhone:   "+919876543210",
		ServiceID:       "svc-1",
		LocationID:      1,
		Address:         "12 MG Road",
		StartTime:       start,
		DurationMinutes: 60,
		EndTime:         start.Add(time.Hour),
		Status:          status,
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestPublisher_NotifyBookingOutcome(t *testing.T) {
	producer := &recordingProducer{}
	p := NewPublisher(producer, stubServices{}, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), middleware.RequestIDKey, "req-42"))
	booking := testBooking(model.BookingAssigned)
	professional := &model.Professional{ID: "prof_1", Name: "John", Email: "john@example.com"}
	p.NotifyBookingOutcome(ctx, booking, allocation.Outcome{
		Status:       model.BookingAssigned,
		Allocation:   &model.Allocation{ID: "a-1", BookingID: "b-1", ProfessionalID: "prof_1"},
		Professional: professional,
	})
	cancel()
	booking.Status = model.BookingCancelled
	p.Close()

	if len(producer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(producer.messages))
	}
	if producer.sawCtx[0] != nil {
		t.Errorf("publish must not inherit request cancellation, saw %v", producer.sawCtx[0])
	}

	msg := producer.messages[0]
	if msg.Key != "b-1" {
		t.Errorf("key = %q, want booking id", msg.Key)
	}
	if msg.GetEventType() != EventBookingAssigned {
		t.Errorf("event type = %q", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "req-42" {
		t.Errorf("correlation id = %q", msg.GetCorrelationID())
	}

	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if event.Booking.Status != model.BookingAssigned {
		t.Errorf("event must snapshot the booking, got status %q", event.Booking.Status)
	}
	if event.ServiceName != "Premium Wash" {
		t.Errorf("service name = %q", event.ServiceName)
	}
	if event.Professional == nil || event.Professional.ID != "prof_1" {
		t.Errorf("professional missing: %+v", event.Professional)
	}
}

func TestPublisher_OutcomeEventTypes(t *testing.T) {
	tests := []struct {
		status    string
		wantEvent string
	}{
		{model.BookingNoProfessionalsAvailable, EventBookingUnavailable},
		{model.BookingNotServiceable, EventBookingNotServiceable},
		{model.BookingPending, ""},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			producer := &recordingProducer{}
			p := NewPublisher(producer, nil, time.Second, logger.Discard())

			p.NotifyBookingOutcome(context.Background(), testBooking(tt.status), allocation.Outcome{
				Status:       tt.status,
				Professional: &model.Professional{ID: "prof_1"},
			})
			p.Close()

			if tt.wantEvent == "" {
				if len(producer.messages) != 0 {
					t.Errorf("expected no message, got %d", len(producer.messages))
				}
				return
			}
			if len(producer.messages) != 1 || producer.messages[0].GetEventType() != tt.wantEvent {
				t.Fatalf("unexpected messages %+v", producer.messages)
			}
			var event BookingEvent
			_ = producer.messages[0].DecodeValue(&event)
			if event.Professional != nil {
				t.Errorf("only assignments carry a professional")
			}
		})
	}
}

func TestPublisher_NotifyStatusUpdate(t *testing.T) {
	producer := &recordingProducer{}
	p := NewPublisher(producer, nil, time.Second, logger.Discard())

	p.NotifyStatusUpdate(context.Background(), testBooking(model.BookingConfirmed), &model.Allocation{ID: "a-1", Status: model.AllocationConfirmed})
	p.Close()

	if len(producer.messages) != 1 || producer.messages[0].GetEventType() != EventBookingStatusUpdated {
		t.Fatalf("unexpected messages %+v", producer.messages)
	}
}

func TestPublisher_FailureIsSwallowed(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	p := NewPublisher(producer, nil, time.Second, logger.Discard())

	p.NotifyStatusUpdate(context.Background(), testBooking(model.BookingCancelled), nil)
	p.Close()

	if len(producer.sawCtx) != 1 {
		t.Errorf("expected exactly one publish attempt, got %d", len(producer.sawCtx))
	}
}
