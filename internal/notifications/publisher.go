package notifications

import (
	"context"
	"sync"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/kafka"
	"carwash/pkg/logger"
	"carwash/pkg/middleware"
	"carwash/pkg/model"
)

const eventSource = "bookings"

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// ServiceLookup resolves the catalog entry shown in emails. Optional.
type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
}

// Publisher turns allocation outcomes and status changes into Kafka events. Every publish runs
// in its own goroutine detached from the request context, bounded by timeout.
type Publisher struct {
	producer messagePublisher
	services ServiceLookup
	timeout  time.Duration
	log      *logger.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewPublisher(producer messagePublisher, services ServiceLookup, timeout time.Duration, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		services: services,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

func (p *Publisher) NotifyBookingOutcome(ctx context.Context, booking *model.Booking, outcome allocation.Outcome) {
	eventType, ok := eventTypeForStatus(outcome.Status)
	if !ok || booking == nil {
		return
	}

	event := BookingEvent{
		Booking:    *booking,
		OccurredAt: p.now().UTC(),
	}
	if outcome.Allocation != nil {
		a := *outcome.Allocation
		event.Allocation = &a
	}
	if eventType == EventBookingAssigned && outcome.Professional != nil {
		professional := *outcome.Professional
		event.Professional = &professional
	}
	p.publishAsync(ctx, eventType, event)
}

func (p *Publisher) NotifyStatusUpdate(ctx context.Context, booking *model.Booking, alloc *model.Allocation) {
	if booking == nil {
		return
	}

	event := BookingEvent{
		Booking:    *booking,
		OccurredAt: p.now().UTC(),
	}
	if alloc != nil {
		a := *alloc
		event.Allocation = &a
	}
	p.publishAsync(ctx, EventBookingStatusUpdated, event)
}

func (p *Publisher) publishAsync(ctx context.Context, eventType string, event BookingEvent) {
	correlationID := middleware.RequestIDFromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		if err := p.publish(ctx, eventType, correlationID, event); err != nil {
			p.log.Error("Failed to publish booking notification",
				"event_type", eventType,
				"booking_id", event.Booking.ID,
				"error", err,
			)
		}
	}()
}

func (p *Publisher) publish(ctx context.Context, eventType, correlationID string, event BookingEvent) error {
	if p.services != nil && event.Booking.ServiceID != "" {
		if svc, err := p.services.GetByID(ctx, event.Booking.ServiceID); err == nil {
			event.ServiceName = svc.Name
		} else {
			p.log.Warn("Service lookup failed, publishing without service name", "service_id", event.Booking.ServiceID, "error", err)
		}
	}

	builder := kafka.NewMessage().
		WithKey(event.Booking.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(eventSource)
	if correlationID != "" {
		builder = builder.WithCorrelationID(correlationID)
	}

	msg, err := builder.Build()
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return err
	}

	p.log.Debug("Booking notification published", "event_type", eventType, "booking_id", event.Booking.ID)
	return nil
}

// Close waits for in-flight publishes. Call it before closing the producer.
func (p *Publisher) Close() {
	p.wg.Wait()
}
