package channelRepo

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

// ChannelRepository stores customer/provider communication channels.
type ChannelRepository interface {
	// Create fails with repository.ErrDuplicate when the booking already has a channel.
	Create(ctx context.Context, channel *models.Channel) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Channel, error)
}

type mongoChannelRepo struct {
	coll *mongo.Collection
}

// NewMongoChannelRepo constructs a MongoDB ChannelRepository.
func NewMongoChannelRepo(db *mongo.Database) ChannelRepository {
	return &mongoChannelRepo{coll: db.Collection("channels")}
}

func (r *mongoChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, channel); err != nil {
		return fmt.Errorf("failed to create channel for booking %s: %w", channel.BookingID, repository.Translate(err))
	}
	return nil
}

func (r *mongoChannelRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Channel, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var ch models.Channel
	if err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&ch); err != nil {
		return nil, fmt.Errorf("failed to fetch channel for booking %s: %w", bookingID, repository.Translate(err))
	}
	return &ch, nil
}

// EnsureIndexes keeps one channel per booking.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection("channels").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_booking"),
	})
	if err != nil {
		return fmt.Errorf("failed to create channel indexes: %w", err)
	}
	return nil
}
