package model

import "time"

type Allocation struct {
	ID             string    `json:"id" bson:"_id"`
	BookingID      string    `json:"booking_id" bson:"booking_id"`
	ProfessionalID string    `json:"professional_id" bson:"professional_id"`
	AssignedAt     time.Time `json:"assigned_at" bson:"assigned_at"`
	Status         string    `json:"status" bson:"status"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`

	// Active mirrors IsBookingOwningAllocation(Status); the partial unique index keys on it.
	Active bool `json:"-" bson:"active"`
}

func (a *Allocation) SetStatus(status string, at time.Time) {
	a.Status = status
	a.Active = IsBookingOwningAllocation(status)
	a.UpdatedAt = at
}

type AllocationStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled completed"`
}

// Assignment is a professional's view of one allocation and its booking.
type Assignment struct {
	Allocation *Allocation `json:"allocation" bson:"allocation"`
	Booking    *Booking    `json:"booking" bson:"booking"`
}
