package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ────────────────────────────────────────────────
// In-memory lock collection
// ────────────────────────────────────────────────

// memLockCollection mimics the unique _id of the locks collection and understands the three
// filters the locker sends: by id, by id and owner, and by id with an expires_at upper bound.
type memLockCollection struct {
	mu        sync.Mutex
	locks     map[string]model.AllocationLock
	insertErr error
	inserts   int
}

func newMemLockCollection() *memLockCollection {
	return &memLockCollection{locks: map[string]model.AllocationLock{}}
}

func (c *memLockCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts++
	if c.insertErr != nil {
		return nil, c.insertErr
	}

	lock := *document.(*model.AllocationLock)
	if _, exists := c.locks[lock.ID]; exists {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	}
	c.locks[lock.ID] = lock
	return &mongo.InsertOneResult{InsertedID: lock.ID}, nil
}

func (c *memLockCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := filter.(bson.M)
	id := f["_id"].(string)
	lock, ok := c.locks[id]
	if !ok {
		return &mongo.DeleteResult{}, nil
	}
	if owner, set := f["owner"]; set && owner != lock.Owner {
		return &mongo.DeleteResult{}, nil
	}
	if bound, set := f["expires_at"]; set && lock.ExpiresAt.After(bound.(bson.M)["$lte"].(time.Time)) {
		return &mongo.DeleteResult{}, nil
	}
	delete(c.locks, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (c *memLockCollection) seed(key, owner string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks[key] = model.AllocationLock{ID: key, Owner: owner, ExpiresAt: expiresAt, CreatedAt: expiresAt.Add(-time.Minute)}
}

func (c *memLockCollection) holder(key string) (model.AllocationLock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	return lock, ok
}

func newTestMongoLocker(coll lockCollection, wait time.Duration) *mongoLockRepository {
	return &mongoLockRepository{
		collection: coll,
		ttl:        30 * time.Second,
		wait:       wait,
		timeout:    time.Second,
	}
}

// ────────────────────────────────────────────────
// Acquire and release
// ────────────────────────────────────────────────

func TestMongoLock_InsertIsAcquire(t *testing.T) {
	coll := newMemLockCollection()
	locker := newTestMongoLocker(coll, time.Second)

	before := time.Now().UTC()
	release, err := locker.Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	lock, ok := coll.holder("professional:P1")
	if !ok {
		t.Fatal("expected a lock document after Acquire")
	}
	if lock.Owner == "" {
		t.Errorf("lock has no owner")
	}
	if lock.ExpiresAt.Before(before.Add(locker.ttl)) {
		t.Errorf("expires_at = %v, want at least ttl from now", lock.ExpiresAt)
	}

	if err := release(context.Background()); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	if _, ok := coll.holder("professional:P1"); ok {
		t.Errorf("lock still present after release")
	}
}

func TestMongoLock_WaitsForHolderToRelease(t *testing.T) {
	coll := newMemLockCollection()
	locker := newTestMongoLocker(coll, 2*time.Second)

	first, err := locker.Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	go func() {
		time.Sleep(3 * lockPollInterval)
		_ = first(context.Background())
	}()

	second, err := locker.Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	defer second(context.Background())

	coll.mu.Lock()
	inserts := coll.inserts
	coll.mu.Unlock()
	if inserts < 3 {
		t.Errorf("inserts = %d, want the second acquirer to retry after duplicate keys", inserts)
	}
}

func TestMongoLock_ClearsExpiredHolder(t *testing.T) {
	coll := newMemLockCollection()
	coll.seed("professional:P1", "crashed-run", time.Now().UTC().Add(-time.Second))
	locker := newTestMongoLocker(coll, 0)

	release, err := locker.Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release(context.Background())

	lock, _ := coll.holder("professional:P1")
	if lock.Owner == "crashed-run" {
		t.Errorf("expired holder was not replaced")
	}
}

func TestMongoLock_BusyAfterWait(t *testing.T) {
	coll := newMemLockCollection()
	coll.seed("professional:P1", "other-run", time.Now().UTC().Add(time.Minute))
	locker := newTestMongoLocker(coll, 2*lockPollInterval)

	start := time.Now()
	_, err := locker.Acquire(context.Background(), "professional:P1")
	if !errors.Is(err, allocation.ErrLockBusy) {
		t.Fatalf("error = %v, want ErrLockBusy", err)
	}
	if elapsed := time.Since(start); elapsed < locker.wait {
		t.Errorf("gave up after %v, want at least %v", elapsed, locker.wait)
	}
	if lock, _ := coll.holder("professional:P1"); lock.Owner != "other-run" {
		t.Errorf("live holder must be left alone, got owner %q", lock.Owner)
	}
}

func TestMongoLock_ReleaseOnlyDeletesOwnLock(t *testing.T) {
	coll := newMemLockCollection()
	locker := newTestMongoLocker(coll, time.Second)

	release, err := locker.Acquire(context.Background(), "professional:P1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Our lock expired and another run took it over.
	coll.seed("professional:P1", "next-run", time.Now().UTC().Add(time.Minute))

	if err := release(context.Background()); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	if lock, ok := coll.holder("professional:P1"); !ok || lock.Owner != "next-run" {
		t.Errorf("release removed a lock held by another owner")
	}
}

func TestMongoLock_Errors(t *testing.T) {
	t.Run("insert failure is not busy", func(t *testing.T) {
		coll := newMemLockCollection()
		coll.insertErr = errors.New("not primary")

		_, err := newTestMongoLocker(coll, time.Second).Acquire(context.Background(), "professional:P1")
		if err == nil || errors.Is(err, allocation.ErrLockBusy) {
			t.Errorf("error = %v, want a store failure", err)
		}
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		coll := newMemLockCollection()
		coll.seed("professional:P1", "other-run", time.Now().UTC().Add(time.Minute))

		ctx, cancel := context.WithTimeout(context.Background(), lockPollInterval)
		defer cancel()

		_, err := newTestMongoLocker(coll, 5*time.Second).Acquire(ctx, "professional:P1")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want context deadline", err)
		}
	})
}
