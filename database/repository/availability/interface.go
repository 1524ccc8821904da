package availabilityRepo

import (
	"context"
	"time"

	"ceremonify/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRepository stores a provider's weekly working hours.
type AvailabilityRepository interface {
	// Upsert replaces the slot for (providerID, dayOfWeek).
	Upsert(ctx context.Context, slot models.AvailabilitySlot) error
	// Get returns repository.ErrNotFound when the provider has no hours that day.
	Get(ctx context.Context, providerID string, day time.Weekday) (*models.AvailabilitySlot, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error)
	Delete(ctx context.Context, providerID string, day time.Weekday) error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{
		coll: db.Collection("availability"),
	}
}
