package allocation

import (
	"context"
	"time"

	"carwash/pkg/model"
)

type Options struct {
	// CountCancelledAsOpen keeps cancelled allocations in the workload count. Completed and
	// rejected allocations never count.
	CountCancelledAsOpen bool
	// StoreCallTimeout bounds every store and directory call; zero disables the bound.
	StoreCallTimeout time.Duration
}

func (o Options) excludedStatuses() []string {
	excluded := []string{model.AllocationCompleted, model.AllocationRejected}
	if !o.CountCancelledAsOpen {
		excluded = append(excluded, model.AllocationCancelled)
	}
	return excluded
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
