package allocation

import (
	"context"
	"sort"
	"time"

	"carwash/pkg/model"
)

type Ranker struct {
	store    Store
	excluded []string
	timeout  time.Duration
}

func NewRanker(store Store, opts Options) *Ranker {
	return &Ranker{
		store:    store,
		excluded: opts.excludedStatuses(),
		timeout:  opts.StoreCallTimeout,
	}
}

// Rank orders candidates by ascending open-allocation count. The sort is stable, so ties keep the
// order they came in.
func (r *Ranker) Rank(ctx context.Context, candidates []model.Professional) ([]RankedCandidate, error) {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, p := range candidates {
		count, err := r.count(ctx, p.ID)
		if err != nil {
			return nil, storeError("count open allocations", err)
		}
		ranked = append(ranked, RankedCandidate{Professional: p, OpenAllocations: count})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OpenAllocations < ranked[j].OpenAllocations
	})
	return ranked, nil
}

func (r *Ranker) count(ctx context.Context, professionalID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.CountOpenAllocations(ctx, professionalID, r.excluded)
}
