package allocation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"carwash/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory collaborators
// ────────────────────────────────────────────────

type fakeDirectory struct {
	professionals []model.Professional
	err           error
	calls         atomic.Int64
}

func (d *fakeDirectory) ListProfessionalsCoveringArea(ctx context.Context, areaID int) ([]model.Professional, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	out := make([]model.Professional, 0, len(d.professionals))
	for _, p := range d.professionals {
		if p.Covers(areaID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeStore struct {
	mu          sync.Mutex
	bookings    map[string]*model.Booking
	allocations []*model.Allocation
	nextID      int

	countErr     error
	listErr      error
	setStatusErr error
	createErrFor map[string]error

	statusWrites []string
	countCalls   []string
}

func newFakeStore(bookings ...*model.Booking) *fakeStore {
	s := &fakeStore{bookings: map[string]*model.Booking{}, createErrFor: map[string]error{}}
	for _, b := range bookings {
		s.addBooking(b)
	}
	return s
}

func (s *fakeStore) addBooking(b *model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *b
	s.bookings[b.ID] = &copied
}

// seedAllocation records an existing allocation for a booking that is already in the store.
func (s *fakeStore) seedAllocation(bookingID, professionalID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a := &model.Allocation{ID: fmt.Sprintf("seed-%d", s.nextID), BookingID: bookingID, ProfessionalID: professionalID}
	a.SetStatus(status, a.AssignedAt)
	s.allocations = append(s.allocations, a)
}

func (s *fakeStore) CountOpenAllocations(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls = append(s.countCalls, professionalID)
	if s.countErr != nil {
		return 0, s.countErr
	}

	var n int64
	for _, a := range s.allocations {
		if a.ProfessionalID == professionalID && !contains(excludedStatuses, a.Status) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ListActiveAllocationsForProfessional(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []model.ScheduledInterval
	for _, a := range s.allocations {
		if a.ProfessionalID != professionalID || !contains(model.ActiveAllocationStatuses, a.Status) {
			continue
		}
		b, ok := s.bookings[a.BookingID]
		if !ok || contains(model.ClosedBookingStatuses, b.Status) {
			continue
		}
		out = append(out, b.Interval())
	}
	return out, nil
}

func (s *fakeStore) CreateAllocation(ctx context.Context, allocation *model.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createErrFor[allocation.ProfessionalID]; err != nil {
		return err
	}
	for _, a := range s.allocations {
		if a.BookingID == allocation.BookingID && a.Active {
			return fmt.Errorf("%w: booking %s already allocated", ErrCommitConflict, allocation.BookingID)
		}
	}

	s.nextID++
	allocation.ID = fmt.Sprintf("alloc-%d", s.nextID)
	copied := *allocation
	s.allocations = append(s.allocations, &copied)
	return nil
}

func (s *fakeStore) SetBookingStatus(ctx context.Context, bookingID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setStatusErr != nil {
		return s.setStatusErr
	}
	b, ok := s.bookings[bookingID]
	if ok && b.Status != model.BookingPending {
		return fmt.Errorf("%w: booking %s is %s", ErrBookingNotPending, bookingID, b.Status)
	}
	s.statusWrites = append(s.statusWrites, status)
	if ok {
		b.Status = status
	}
	return nil
}

// WithinTransaction restores allocations and booking statuses when fn fails.
func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	allocations := len(s.allocations)
	statuses := make(map[string]string, len(s.bookings))
	for id, b := range s.bookings {
		statuses[id] = b.Status
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.allocations = s.allocations[:allocations]
		for id, status := range statuses {
			s.bookings[id].Status = status
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) activeAllocationsFor(bookingID string) []*model.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Allocation
	for _, a := range s.allocations {
		if a.BookingID == bookingID && a.Active {
			out = append(out, a)
		}
	}
	return out
}

func (s *fakeStore) bookingStatus(bookingID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[bookingID].Status
}

// memLocker blocks until the key is free, like a lock with an unbounded wait.
type memLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	busy  map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{slots: map[string]chan struct{}{}, busy: map[string]bool{}}
}

func (l *memLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	if l.busy[key] {
		l.mu.Unlock()
		return nil, ErrLockBusy
	}
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return func(context.Context) error {
		<-slot
		return nil
	}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (n *recordingNotifier) NotifyBookingOutcome(ctx context.Context, booking *model.Booking, outcome Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, outcome)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.outcomes)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
