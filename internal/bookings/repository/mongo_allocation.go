package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "carwash/internal/bookings/errors"
	"carwash/pkg/config"
	"carwash/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoAllocationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAllocationRepository(cfg *config.Config) AllocationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAllocationRepository{
		cfg:        cfg,
		collection: db.Collection(AllocationsCollection),
	}
}

// Create relies on the partial unique index over {booking_id} where active is true.
func (r *mongoAllocationRepository) Create(ctx context.Context, allocation *model.Allocation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	allocation.Active = model.IsBookingOwningAllocation(allocation.Status)

	if _, err := r.collection.InsertOne(ctx, allocation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrActiveAllocationExists, allocation.BookingID)
		}
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

func (r *mongoAllocationRepository) FindByID(ctx context.Context, id string) (*model.Allocation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var allocation model.Allocation
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&allocation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrAllocationNotFound
		}
		return nil, fmt.Errorf("failed to find allocation: %w", err)
	}
	return &allocation, nil
}

func (r *mongoAllocationRepository) FindByProfessional(ctx context.Context, professionalID string, limit int, offset int64) ([]*model.Assignment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"professional_id": professionalID}}},
		{{Key: "$sort", Value: bson.D{{Key: "assigned_at", Value: -1}}}},
		{{Key: "$skip", Value: offset}},
		{{Key: "$limit", Value: int64(limit)}},
		lookupBooking(),
		{{Key: "$unwind", Value: "$booking"}},
		{{Key: "$project", Value: bson.M{
			"_id":     0,
			"booking": 1,
			"allocation": bson.M{
				"_id":             "$_id",
				"booking_id":      "$booking_id",
				"professional_id": "$professional_id",
				"assigned_at":     "$assigned_at",
				"status":          "$status",
				"updated_at":      "$updated_at",
				"active":          "$active",
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer cursor.Close(ctx)

	assignments := []*model.Assignment{}
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return assignments, nil
}

func (r *mongoAllocationRepository) CountByProfessional(ctx context.Context, professionalID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"professional_id": professionalID})
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (r *mongoAllocationRepository) FindProfessionalsByBooking(ctx context.Context, bookingID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "professional_id", bson.M{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to list booking professionals: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *mongoAllocationRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) error {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"active":     model.IsBookingOwningAllocation(to),
			"updated_at": at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: allocation %s", bookingserrors.ErrActiveAllocationExists, id)
		}
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrAllocationNotFound
	}
	return fmt.Errorf("%w: allocation %s is no longer %s", bookingserrors.ErrStatusChanged, id, from)
}

func (r *mongoAllocationRepository) CountOpen(ctx context.Context, professionalID string, excludedStatuses []string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	filter := bson.M{
		"professional_id": professionalID,
		"status":          bson.M{"$nin": excludedStatuses},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count open allocations: %w", err)
	}
	return count, nil
}

func (r *mongoAllocationRepository) ListActiveIntervals(ctx context.Context, professionalID string) ([]model.ScheduledInterval, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.StoreCallTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"professional_id": professionalID,
			"status":          bson.M{"$in": model.ActiveAllocationStatuses},
		}}},
		lookupBooking(),
		{{Key: "$unwind", Value: "$booking"}},
		{{Key: "$match", Value: bson.M{"booking.status": bson.M{"$nin": model.ClosedBookingStatuses}}}},
		{{Key: "$project", Value: bson.M{
			"_id":              0,
			"booking_id":       1,
			"start_time":       "$booking.start_time",
			"duration_minutes": "$booking.duration_minutes",
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list active allocations: %w", err)
	}
	defer cursor.Close(ctx)

	var intervals []model.ScheduledInterval
	if err := cursor.All(ctx, &intervals); err != nil {
		return nil, fmt.Errorf("failed to decode active allocations: %w", err)
	}
	return intervals, nil
}

func lookupBooking() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         BookingsCollection,
		"localField":   "booking_id",
		"foreignField": "_id",
		"as":           "booking",
	}}}
}
