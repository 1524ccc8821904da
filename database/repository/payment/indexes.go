package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the payment collections' indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sets := map[string][]mongo.IndexModel{
		"payment_schedules": {
			{
				Keys:    bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_booking"),
			},
		},
		"payment_ledgers": {
			{
				Keys:    bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_booking"),
			},
		},
		"payments": {
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_id"),
			},
			{
				Keys: bson.D{{Key: "session_token", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_session").
					SetPartialFilterExpression(bson.M{"session_token": bson.M{"$type": "string"}}),
			},
			{
				Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "milestone", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("booking_milestone_status_idx"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("status_created_idx"),
			},
		},
	}
	for coll, idx := range sets {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}
