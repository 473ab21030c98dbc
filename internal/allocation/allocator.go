package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carwash/pkg/logger"
	"carwash/pkg/model"
)

const lockKeyPrefix = "professional:"

type Allocator struct {
	resolver  *Resolver
	ranker    *Ranker
	checker   *AvailabilityChecker
	committer *Committer
	store     Store
	locker    Locker
	notifier  Notifier
	opts      Options
	log       *logger.Logger
}

func NewAllocator(directory Directory, store Store, locker Locker, notifier Notifier, opts Options, log *logger.Logger) *Allocator {
	return &Allocator{
		resolver:  NewResolver(directory, opts.StoreCallTimeout),
		ranker:    NewRanker(store, opts),
		checker:   NewAvailabilityChecker(store, opts.StoreCallTimeout),
		committer: NewCommitter(store, opts.StoreCallTimeout),
		store:     store,
		locker:    locker,
		notifier:  notifier,
		opts:      opts,
		log:       log.WithComponent("allocator"),
	}
}

// Allocate drives a pending booking to its terminal allocation state and updates booking.Status
// in place. On a *TransientError the booking is left pending.
func (a *Allocator) Allocate(ctx context.Context, booking *model.Booking) (*Outcome, error) {
	return a.allocate(ctx, booking, nil)
}

// Reallocate runs the same flow but never offers the booking to the excluded professionals.
// It is used after a professional rejects an assignment and the booking is back to pending.
func (a *Allocator) Reallocate(ctx context.Context, booking *model.Booking, excludedProfessionals []string) (*Outcome, error) {
	excluded := make(map[string]struct{}, len(excludedProfessionals))
	for _, id := range excludedProfessionals {
		excluded[id] = struct{}{}
	}
	return a.allocate(ctx, booking, excluded)
}

func (a *Allocator) allocate(ctx context.Context, booking *model.Booking, excluded map[string]struct{}) (*Outcome, error) {
	if err := validateBooking(booking); err != nil {
		return nil, err
	}

	candidates, err := a.resolver.Resolve(ctx, booking.LocationID)
	if err != nil {
		a.log.Warn("failed to resolve candidates", "booking_id", booking.ID, "location_id", booking.LocationID, "error", err)
		return nil, err
	}
	candidates = withoutExcluded(candidates, excluded)

	if len(candidates) == 0 {
		return a.finish(ctx, booking, &Outcome{Status: model.BookingNotServiceable})
	}

	ranked, err := a.ranker.Rank(ctx, candidates)
	if err != nil {
		a.log.Warn("failed to rank candidates", "booking_id", booking.ID, "error", err)
		return nil, err
	}

	outcome := &Outcome{Candidates: len(ranked)}
	var contended error
	for _, candidate := range ranked {
		outcome.Probed++

		allocation, err := a.probe(ctx, booking, candidate.Professional.ID)
		if errors.Is(err, ErrLockBusy) {
			a.log.Info("professional lock busy, trying next candidate",
				"booking_id", booking.ID,
				"professional_id", candidate.Professional.ID,
			)
			contended = err
			continue
		}
		if errors.Is(err, ErrCommitConflict) {
			a.log.Info("lost race for professional, trying next candidate",
				"booking_id", booking.ID,
				"professional_id", candidate.Professional.ID,
				"error", err,
			)
			continue
		}
		if err != nil {
			a.log.Warn("allocation probe failed", "booking_id", booking.ID, "professional_id", candidate.Professional.ID, "error", err)
			return nil, err
		}
		if allocation == nil {
			continue
		}

		professional := candidate.Professional
		outcome.Status = model.BookingAssigned
		outcome.Allocation = allocation
		outcome.Professional = &professional

		booking.Status = model.BookingAssigned
		booking.UpdatedAt = allocation.AssignedAt
		a.log.Info("booking assigned",
			"booking_id", booking.ID,
			"professional_id", professional.ID,
			"allocation_id", allocation.ID,
			"open_allocations", candidate.OpenAllocations,
			"probed", outcome.Probed,
		)
		a.notify(ctx, booking, outcome)
		return outcome, nil
	}

	// A professional whose lock we never got may still be free, so the booking stays pending.
	if contended != nil {
		a.log.Warn("allocation deferred by lock contention", "booking_id", booking.ID, "probed", outcome.Probed)
		return nil, storeError("acquire allocation lock", contended)
	}

	outcome.Status = model.BookingNoProfessionalsAvailable
	return a.finish(ctx, booking, outcome)
}

// probe checks and commits one candidate under that professional's lock. A nil allocation with a
// nil error means the professional is busy at the requested time; ErrLockBusy means we never
// found out.
func (a *Allocator) probe(ctx context.Context, booking *model.Booking, professionalID string) (*model.Allocation, error) {
	release, err := a.locker.Acquire(ctx, lockKeyPrefix+professionalID)
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			return nil, err
		}
		return nil, storeError("acquire allocation lock", err)
	}
	defer a.release(ctx, professionalID, release)

	available, err := a.checker.IsAvailable(ctx, professionalID, booking.StartTime, booking.DurationMinutes)
	if err != nil || !available {
		return nil, err
	}

	return a.committer.Commit(ctx, booking.ID, professionalID)
}

func (a *Allocator) release(ctx context.Context, professionalID string, release func(context.Context) error) {
	releaseCtx, cancel := withTimeout(context.WithoutCancel(ctx), a.releaseTimeout())
	defer cancel()

	if err := release(releaseCtx); err != nil {
		a.log.Warn("failed to release allocation lock", "professional_id", professionalID, "error", err)
	}
}

func (a *Allocator) releaseTimeout() time.Duration {
	if a.opts.StoreCallTimeout > 0 {
		return a.opts.StoreCallTimeout
	}
	return 5 * time.Second
}

// finish records a terminal status that carries no allocation.
func (a *Allocator) finish(ctx context.Context, booking *model.Booking, outcome *Outcome) (*Outcome, error) {
	storeCtx, cancel := withTimeout(ctx, a.opts.StoreCallTimeout)
	defer cancel()

	if err := a.store.SetBookingStatus(storeCtx, booking.ID, outcome.Status); err != nil {
		if errors.Is(err, ErrBookingNotPending) {
			a.log.Info("booking settled by another allocation run", "booking_id", booking.ID, "status", outcome.Status)
			return nil, err
		}
		a.log.Warn("failed to record allocation outcome", "booking_id", booking.ID, "status", outcome.Status, "error", err)
		return nil, storeError("set booking status", err)
	}

	booking.Status = outcome.Status
	booking.UpdatedAt = time.Now().UTC()
	a.log.Info("booking not allocated",
		"booking_id", booking.ID,
		"status", outcome.Status,
		"candidates", outcome.Candidates,
	)
	a.notify(ctx, booking, outcome)
	return outcome, nil
}

func (a *Allocator) notify(ctx context.Context, booking *model.Booking, outcome *Outcome) {
	if a.notifier == nil {
		return
	}
	a.notifier.NotifyBookingOutcome(ctx, booking, *outcome)
}

func validateBooking(booking *model.Booking) error {
	switch {
	case booking == nil:
		return fmt.Errorf("%w: booking is nil", ErrInvalidBooking)
	case booking.ID == "":
		return fmt.Errorf("%w: booking has no id", ErrInvalidBooking)
	case booking.LocationID <= 0:
		return fmt.Errorf("%w: location_id must be positive", ErrInvalidBooking)
	case booking.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidBooking)
	case booking.StartTime.IsZero():
		return fmt.Errorf("%w: start_time is required", ErrInvalidBooking)
	case booking.Status != "" && booking.Status != model.BookingPending:
		return fmt.Errorf("%w: status is %s", ErrBookingNotPending, booking.Status)
	}
	return nil
}

func withoutExcluded(candidates []model.Professional, excluded map[string]struct{}) []model.Professional {
	if len(excluded) == 0 {
		return candidates
	}
	kept := candidates[:0]
	for _, p := range candidates {
		if _, skip := excluded[p.ID]; !skip {
			kept = append(kept, p)
		}
	}
	return kept
}
