package allocation

import (
	"context"
	"time"

	"carwash/pkg/model"
)

type AvailabilityChecker struct {
	store   Store
	timeout time.Duration
}

func NewAvailabilityChecker(store Store, timeout time.Duration) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, timeout: timeout}
}

// IsAvailable reports whether [start, start+duration) is free on the professional's calendar.
// A window ending exactly at start does not conflict.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, professionalID string, start time.Time, durationMinutes int) (bool, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	existing, err := c.store.ListActiveAllocationsForProfessional(ctx, professionalID)
	if err != nil {
		return false, storeError("list active allocations", err)
	}

	requested := model.ScheduledInterval{Start: start, DurationMinutes: durationMinutes}
	for _, interval := range existing {
		if requested.Overlaps(interval) {
			return false, nil
		}
	}
	return true, nil
}
