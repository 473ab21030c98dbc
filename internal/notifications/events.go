package notifications

import (
	"time"

	"carwash/pkg/model"
)

const (
	EventBookingAssigned       = "booking.assigned"
	EventBookingUnavailable    = "booking.unavailable"
	EventBookingNotServiceable = "booking.not_serviceable"
	EventBookingStatusUpdated  = "booking.status_updated"

	SchemaVersion = "1"
)

// BookingEvent is the payload of every message on the notifications topic.
type BookingEvent struct {
	Booking      model.Booking       `json:"booking"`
	ServiceName  string              `json:"service_name,omitempty"`
	Allocation   *model.Allocation   `json:"allocation,omitempty"`
	Professional *model.Professional `json:"professional,omitempty"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// eventTypeForStatus maps a terminal allocation outcome to its event. Pending is not an outcome
// worth telling anyone about.
func eventTypeForStatus(bookingStatus string) (string, bool) {
	switch bookingStatus {
	case model.BookingAssigned:
		return EventBookingAssigned, true
	case model.BookingNoProfessionalsAvailable:
		return EventBookingUnavailable, true
	case model.BookingNotServiceable:
		return EventBookingNotServiceable, true
	default:
		return "", false
	}
}
