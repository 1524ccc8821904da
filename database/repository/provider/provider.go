package providerRepo

import (
	"context"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProviderRepository reads the pricing side of provider profiles.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// Save inserts or replaces a provider profile.
	Save(ctx context.Context, provider *models.Provider) error
	// UpdateAdvancePolicy replaces a provider's advance-payment policy.
	UpdateAdvancePolicy(ctx context.Context, id string, policy models.AdvancePolicy) (*models.Provider, error)
}

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo(db *mongo.Database) ProviderRepository {
	return &MongoProviderRepo{coll: db.Collection("providers")}
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, repository.Translate(err))
	}
	return &provider, nil
}

func (r *MongoProviderRepo) Save(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	provider.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": provider.ID}, provider, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save provider %s: %w", provider.ID, err)
	}
	return nil
}

func (r *MongoProviderRepo) UpdateAdvancePolicy(ctx context.Context, id string, policy models.AdvancePolicy) (*models.Provider, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{"advance_policy": policy, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var provider models.Provider
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&provider); err != nil {
		return nil, fmt.Errorf("failed to update advance policy for provider %s: %w", id, repository.Translate(err))
	}
	return &provider, nil
}
