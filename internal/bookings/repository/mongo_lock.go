package repository

import (
	"context"
	"fmt"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/config"
	"carwash/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockPollInterval = 50 * time.Millisecond

// lockCollection is the part of *mongo.Collection the locker needs.
type lockCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// mongoLockRepository implements advisory locks as documents keyed by the lock name. The unique
// _id makes the insert the acquire; the TTL index on expires_at reaps locks of crashed holders.
type mongoLockRepository struct {
	collection lockCollection
	ttl        time.Duration
	wait       time.Duration
	timeout    time.Duration
}

func NewMongoLockRepository(cfg *config.Config) allocation.Locker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		collection: db.Collection(LocksCollection),
		ttl:        cfg.AllocationLockTTL,
		wait:       cfg.AllocationLockWait,
		timeout:    cfg.StoreCallTimeout,
	}
}

func (r *mongoLockRepository) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		err := r.insert(ctx, key, owner)
		if err == nil {
			return func(ctx context.Context) error {
				return r.release(ctx, key, owner)
			}, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		// The TTL monitor only runs once a minute, so clear an expired holder ourselves.
		cleared, err := r.deleteExpired(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to clear expired lock %s: %w", key, err)
		}
		if cleared {
			continue
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", allocation.ErrLockBusy, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (r *mongoLockRepository) insert(ctx context.Context, key, owner string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, &model.AllocationLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
	})
	return err
}

func (r *mongoLockRepository) deleteExpired(ctx context.Context, key string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// release only deletes the lock while this owner still holds it.
func (r *mongoLockRepository) release(ctx context.Context, key, owner string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	return err
}
