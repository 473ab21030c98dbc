package model

import "time"

// AllocationLock is an advisory lock on one professional's calendar, held across the
// availability check and the commit.
type AllocationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
