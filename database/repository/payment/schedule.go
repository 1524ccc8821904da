package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoPaymentRepo) GetSchedule(ctx context.Context, bookingID string) (*models.PaymentSchedule, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var s models.PaymentSchedule
	if err := r.scheduleColl.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to fetch schedule for booking %s: %w", bookingID, repository.Translate(err))
	}
	return &s, nil
}

func (r *MongoPaymentRepo) CreateScheduleIfAbsent(ctx context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error) {
	opCtx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{"booking_id": schedule.BookingID}
	update := bson.M{"$setOnInsert": schedule}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.PaymentSchedule
	err := r.scheduleColl.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&stored)
	if err != nil {
		// Two concurrent upserts race on the unique index; the loser reads the winner.
		if mongo.IsDuplicateKeyError(err) {
			return r.GetSchedule(ctx, schedule.BookingID)
		}
		return nil, fmt.Errorf("failed to create schedule for booking %s: %w", schedule.BookingID, err)
	}
	return &stored, nil
}

func (r *MongoPaymentRepo) ReplaceUntouchedSchedule(ctx context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error) {
	opCtx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{
		"booking_id":          schedule.BookingID,
		"current_milestone":   1,
		"applied_payment_ids": bson.M{"$in": bson.A{nil, bson.A{}}},
	}
	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.PaymentSchedule
	err := r.scheduleColl.FindOneAndReplace(opCtx, filter, schedule, opts).Decode(&stored)
	if err != nil {
		// An advanced schedule misses the filter and the upsert hits the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return r.GetSchedule(ctx, schedule.BookingID)
		}
		return nil, fmt.Errorf("failed to replace schedule for booking %s: %w", schedule.BookingID, err)
	}
	return &stored, nil
}

func (r *MongoPaymentRepo) AdvanceMilestone(ctx context.Context, bookingID, paymentID string, expected int) (*models.PaymentSchedule, bool, error) {
	opCtx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{
		"booking_id":          bookingID,
		"current_milestone":   expected,
		"total_milestones":    bson.M{"$gte": expected},
		"applied_payment_ids": bson.M{"$ne": paymentID},
	}
	update := bson.M{
		"$inc":  bson.M{"current_milestone": 1},
		"$set":  bson.M{"last_applied_payment_id": paymentID, "updated_at": time.Now()},
		"$push": bson.M{"applied_payment_ids": paymentID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s models.PaymentSchedule
	err := r.scheduleColl.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&s)
	if err == nil {
		return &s, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to advance schedule for booking %s: %w", bookingID, err)
	}

	current, err := r.GetSchedule(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}
