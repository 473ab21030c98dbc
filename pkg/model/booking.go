package model

import (
	"time"
)

type Booking struct {
	ID              string    `json:"id" bson:"_id"`
	CustomerID      string    `json:"customer_id" bson:"customer_id"`
	CustomerName    string    `json:"customer_name" bson:"customer_name"`
	CustomerEmail   string    `json:"customer_email" bson:"customer_email"`
	CustomerPhone   string    `json:"customer_phone,omitempty" bson:"customer_phone,omitempty"`
	ServiceID       string    `json:"service_id" bson:"service_id"`
	LocationID      int       `json:"location_id" bson:"location_id"`
	Address         string    `json:"location_address" bson:"location_address"`
	StartTime       time.Time `json:"start_time" bson:"start_time"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes"`
	EndTime         time.Time `json:"end_time" bson:"end_time"`
	Status          string    `json:"status" bson:"status"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the customer-facing intake payload.
type BookingRequest struct {
	CustomerID    string    `json:"customer_id" validate:"required,min=1,max=64"`
	CustomerName  string    `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail string    `json:"customer_email" validate:"required,email"`
	CustomerPhone string    `json:"customer_phone" validate:"omitempty,e164,supported_region"`
	ServiceID     string    `json:"service_id" validate:"required"`
	LocationID    int       `json:"location_id" validate:"required,gt=0"`
	Address       string    `json:"location_address" validate:"required,min=3,max=300"`
	StartTime     time.Time `json:"start_time" validate:"required"`
}

// BookingResult is what intake returns: the booking in its final allocation state, plus the
// allocation when one was made.
type BookingResult struct {
	Booking    *Booking    `json:"booking"`
	Allocation *Allocation `json:"allocation,omitempty"`
}

func (b *Booking) Interval() ScheduledInterval {
	return ScheduledInterval{
		BookingID:       b.ID,
		Start:           b.StartTime,
		DurationMinutes: b.DurationMinutes,
	}
}
