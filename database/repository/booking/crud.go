package bookingRepo

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

// Create inserts a new booking document.
func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.bookingColl.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", repository.Translate(err))
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var booking models.Booking
	if err := r.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, repository.Translate(err))
	}
	return &booking, nil
}

// FindBlocking matches bookings whose [start_date, end_date] contains date.
// Dates are stored as YYYY-MM-DD so lexical comparison is chronological.
func (r *MongoBookingRepo) FindBlocking(ctx context.Context, providerID, date, timeSlot string) ([]models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"time_slot":   timeSlot,
		"status":      bson.M{"$in": models.BlockingStatuses},
		"start_date":  bson.M{"$lte": date},
		"end_date":    bson.M{"$gte": date},
	}
	cursor, err := r.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding blocking bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus runs the status compare-and-set and the slot claim changes in one transaction.
func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	var updated models.Booking

	err := repository.RunInTransaction(ctx, r.bookingColl.Database().Client(), func(sc mongo.SessionContext) error {
		filter := bson.M{"id": id, "status": from}
		update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := r.bookingColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated); err != nil {
			if err == mongo.ErrNoDocuments {
				return r.missingOrConflict(sc, id, from)
			}
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		switch {
		case to.Blocks() && !from.Blocks():
			claims, err := models.ClaimsFor(updated)
			if err != nil {
				return err
			}
			docs := make([]interface{}, len(claims))
			for i, c := range claims {
				docs[i] = c
			}
			if _, err := r.claimColl.InsertMany(sc, docs); err != nil {
				return fmt.Errorf("failed to claim slot: %w", repository.Translate(err))
			}
		case from.Blocks() && to == models.BookingCancelled:
			if _, err := r.claimColl.DeleteMany(sc, bson.M{"booking_id": id}); err != nil {
				return fmt.Errorf("failed to release slot claims: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("booking status transaction failed: %w", err)
	}
	return &updated, nil
}

func (r *MongoBookingRepo) missingOrConflict(ctx context.Context, id string, from models.BookingStatus) error {
	n, err := r.bookingColl.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to check booking %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	return fmt.Errorf("booking %s is no longer %s: %w", id, from, repository.ErrConflict)
}

func (r *MongoBookingRepo) SetChannelStatus(ctx context.Context, id, status string) error {
	return r.setField(ctx, id, "channel_status", status)
}

func (r *MongoBookingRepo) SetPaymentStatus(ctx context.Context, id, status string) error {
	return r.setField(ctx, id, "payment_status", status)
}

func (r *MongoBookingRepo) setField(ctx context.Context, id, field, value string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{field: value, "updated_at": time.Now()}}
	res, err := r.bookingColl.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s on booking %s: %w", field, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// ListByChannelStatus returns the oldest bookings with the given channel status.
func (r *MongoBookingRepo) ListByChannelStatus(ctx context.Context, status string, limit int) ([]models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.bookingColl.Find(ctx, bson.M{"channel_status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by channel status: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
