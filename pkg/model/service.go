package model

import "time"

// Service is an entry of the car-wash catalog.
type Service struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"service_name" bson:"service_name" validate:"required,min=2,max=100"`
	Description     string    `json:"description" bson:"description" validate:"omitempty,max=1000"`
	Type            string    `json:"service_type" bson:"service_type" validate:"required,oneof=basic premium deluxe interior exterior"`
	BasePrice       float64   `json:"base_price" bson:"base_price" validate:"gte=0"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,gt=0,lte=1440"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}
