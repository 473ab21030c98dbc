package allocation

import (
	"context"
	"sort"
	"time"

	"carwash/pkg/model"
)

type Resolver struct {
	directory Directory
	timeout   time.Duration
}

func NewResolver(directory Directory, timeout time.Duration) *Resolver {
	return &Resolver{directory: directory, timeout: timeout}
}

// Resolve returns the professionals covering areaID sorted by ID, so equal workloads always probe
// in the same order. Records that do not actually cover the area or repeat an ID are dropped.
func (r *Resolver) Resolve(ctx context.Context, areaID int) ([]model.Professional, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	professionals, err := r.directory.ListProfessionalsCoveringArea(ctx, areaID)
	if err != nil {
		return nil, directoryError("list professionals covering area", err)
	}

	seen := make(map[string]struct{}, len(professionals))
	candidates := make([]model.Professional, 0, len(professionals))
	for _, p := range professionals {
		if p.ID == "" || !p.Covers(areaID) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, p)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}
