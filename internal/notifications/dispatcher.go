package notifications

import (
	"context"

	"carwash/pkg/kafka"
	"carwash/pkg/locale"
	"carwash/pkg/logger"
)

// Dispatcher consumes booking events and delivers them as email and push. Email failures go back
// to the consumer for retry unless a recipient has already been served. Push is best effort.
type Dispatcher struct {
	email     EmailSender
	push      PushSender
	templates *Templates
	timezone  string
	log       *logger.Logger
}

// NewDispatcher accepts a nil push sender when FCM is not configured.
func NewDispatcher(email EmailSender, push PushSender, templates *Templates, timezone string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		email:     email,
		push:      push,
		templates: templates,
		timezone:  timezone,
		log:       log,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable booking event", err)
	}

	eventType := msg.GetEventType()
	switch eventType {
	case EventBookingAssigned:
		return d.assigned(ctx, &event)
	case EventBookingUnavailable:
		return d.toCustomer(ctx, templateCustomerUnavailable, &event)
	case EventBookingNotServiceable:
		return d.toCustomer(ctx, templateCustomerNotServiceable, &event)
	case EventBookingStatusUpdated:
		return d.toCustomer(ctx, templateStatusUpdate, &event)
	default:
		d.log.Warn("Ignoring unknown booking event", "event_type", eventType, "event_id", msg.GetEventID())
		return nil
	}
}

// assigned emails the customer, then the professional, then pushes to the professional. A failed
// customer email is retried before anything else goes out. Once the customer has their email a
// later failure is permanent, since a redelivery would send it to them twice.
func (d *Dispatcher) assigned(ctx context.Context, event *BookingEvent) error {
	if err := d.toCustomer(ctx, templateCustomerAssigned, event); err != nil {
		return err
	}
	customerSent := event.Booking.CustomerEmail != ""

	p := event.Professional
	if p == nil {
		return nil
	}
	if p.Email != "" {
		view := d.view(event, p.Name, p.Phone)
		err := d.send(ctx, templateProfessionalAssigned, Recipient{Email: p.Email, Name: p.Name}, view)
		if err != nil && !customerSent {
			return err
		}
		if err != nil {
			d.log.Error("Professional email failed after customer delivery, not retrying",
				"booking_id", event.Booking.ID,
				"professional_id", p.ID,
				"error", err,
			)
			d.pushAssigned(ctx, event)
			return kafka.NewPermanentError("professional email after customer delivery", err)
		}
	}
	d.pushAssigned(ctx, event)
	return nil
}

func (d *Dispatcher) pushAssigned(ctx context.Context, event *BookingEvent) {
	p := event.Professional
	if p.FCMToken == "" || d.push == nil {
		return
	}
	push := Push{
		Token: p.FCMToken,
		Title: "New Assignment",
		Body:  "You have a new car wash booking at " + event.Booking.Address,
		Data: map[string]string{
			"booking_id": event.Booking.ID,
			"type":       EventBookingAssigned,
		},
	}
	if err := d.push.Send(ctx, push); err != nil {
		d.log.Warn("Push notification failed", "booking_id", event.Booking.ID, "professional_id", p.ID, "error", err)
	}
}

func (d *Dispatcher) toCustomer(ctx context.Context, name string, event *BookingEvent) error {
	b := event.Booking
	if b.CustomerEmail == "" {
		d.log.Warn("Booking has no customer email, skipping", "booking_id", b.ID, "template", name)
		return nil
	}
	return d.send(ctx, name, Recipient{Email: b.CustomerEmail, Name: b.CustomerName}, d.view(event, b.CustomerName, b.CustomerPhone))
}

func (d *Dispatcher) send(ctx context.Context, name string, to Recipient, view emailView) error {
	html, err := d.templates.Render(name, view)
	if err != nil {
		return kafka.NewPermanentError("render email", err)
	}

	if err := d.email.Send(ctx, Email{To: to, Subject: subjectFor(name, view.BookingID), HTML: html}); err != nil {
		return err
	}
	d.log.Info("Email sent", "template", name, "booking_id", view.BookingID)
	return nil
}

// view renders times in the zone of the recipient's phone number, or the display default.
func (d *Dispatcher) view(event *BookingEvent, recipientName, recipientPhone string) emailView {
	b := event.Booking
	zone := locale.InferTimezoneFromPhone(recipientPhone, d.timezone)

	v := emailView{
		RecipientName:   recipientName,
		BookingID:       b.ID,
		ServiceName:     event.ServiceName,
		Address:         b.Address,
		ScheduledAt:     formatInZone(b.StartTime, zone),
		DurationMinutes: b.DurationMinutes,
		CustomerName:    b.CustomerName,
		Status:          b.Status,
	}
	if v.RecipientName == "" {
		v.RecipientName = "there"
	}
	if p := event.Professional; p != nil {
		v.ProfessionalName = p.Name
		v.ProfessionalPhone = p.Phone
		v.ProfessionalEmail = p.Email
	}
	v.StatusTitle, v.StatusMessage = statusText(b.Status)
	return v
}
