package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoAvailabilityRepo) Upsert(ctx context.Context, slot models.AvailabilitySlot) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{"provider_id": slot.ProviderID, "day_of_week": slot.DayOfWeek}
	slot.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, filter, slot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert availability for provider %s: %w", slot.ProviderID, repository.Translate(err))
	}
	return nil
}

func (r *mongoAvailabilityRepo) Get(ctx context.Context, providerID string, day time.Weekday) (*models.AvailabilitySlot, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var slot models.AvailabilitySlot
	filter := bson.M{"provider_id": providerID, "day_of_week": day}
	if err := r.coll.FindOne(ctx, filter).Decode(&slot); err != nil {
		return nil, fmt.Errorf("failed to fetch availability for provider %s on %s: %w", providerID, day, repository.Translate(err))
	}
	return &slot, nil
}

func (r *mongoAvailabilityRepo) ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	slots := []models.AvailabilitySlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	return slots, nil
}

func (r *mongoAvailabilityRepo) Delete(ctx context.Context, providerID string, day time.Weekday) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"provider_id": providerID, "day_of_week": day})
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("no availability for provider %s on %s: %w", providerID, day, repository.ErrNotFound)
	}
	return nil
}
