package model

import "time"

// ScheduledInterval is the half-open window [Start, Start+Duration) a professional is busy for.
type ScheduledInterval struct {
	BookingID       string    `json:"booking_id" bson:"booking_id"`
	Start           time.Time `json:"start_time" bson:"start_time"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes"`
}

func (i ScheduledInterval) End() time.Time {
	return i.Start.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

// Overlaps uses half-open semantics, so back-to-back windows do not overlap.
func (i ScheduledInterval) Overlaps(other ScheduledInterval) bool {
	return Overlaps(i.Start, i.End(), other.Start, other.End())
}

func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
