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

func (r *MongoPaymentRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	if _, err := r.paymentColl.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoPaymentRepo) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoPaymentRepo) GetPaymentBySession(ctx context.Context, sessionToken string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"session_token": sessionToken})
}

func (r *MongoPaymentRepo) FindPendingMilestonePayment(ctx context.Context, bookingID string, milestone int) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{
		"booking_id":            bookingID,
		"milestone":             milestone,
		"is_provider_requested": false,
		"status":                models.PaymentPending,
	})
}

func (r *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var p models.Payment
	if err := r.paymentColl.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", repository.Translate(err))
	}
	return &p, nil
}

func (r *MongoPaymentRepo) ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error) {
	return r.find(ctx, bson.M{"booking_id": bookingID}, 0)
}

// ListStalePending returns pending payments that never got a gateway session.
func (r *MongoPaymentRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	filter := bson.M{
		"status":     models.PaymentPending,
		"created_at": bson.M{"$lt": createdBefore},
		"$or": bson.A{
			bson.M{"session_token": bson.M{"$exists": false}},
			bson.M{"session_token": ""},
		},
	}
	return r.find(ctx, filter, limit)
}

func (r *MongoPaymentRepo) find(ctx context.Context, filter bson.M, limit int) ([]models.Payment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.paymentColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

func (r *MongoPaymentRepo) UpdateSession(ctx context.Context, paymentID, sessionToken, redirectURL string) error {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"session_token": sessionToken,
		"redirect_url":  redirectURL,
		"updated_at":    time.Now(),
	}}
	res, err := r.paymentColl.UpdateOne(ctx, bson.M{"id": paymentID, "status": models.PaymentPending}, update)
	if err != nil {
		return fmt.Errorf("failed to store session on payment %s: %w", paymentID, repository.Translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("payment %s is not pending: %w", paymentID, repository.ErrConflict)
	}
	return nil
}

func (r *MongoPaymentRepo) RecordCollectionAttempt(ctx context.Context, paymentID string) (int, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"collection_attempts": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Payment
	err := r.paymentColl.FindOneAndUpdate(ctx, bson.M{"id": paymentID, "status": models.PaymentPending}, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("payment %s is not pending: %w", paymentID, repository.ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record attempt on payment %s: %w", paymentID, err)
	}
	return p.CollectionAttempts, nil
}

// CompletePayment flips the payment and bumps the booking's collected total in
// one transaction. The ledger document is the per-booking serialization point:
// two completions for the same booking conflict on it.
func (r *MongoPaymentRepo) CompletePayment(ctx context.Context, paymentID string, amount, bookingTotal int64) (*models.Payment, bool, error) {
	var (
		completed models.Payment
		changed   bool
	)

	err := repository.RunInTransaction(ctx, r.paymentColl.Database().Client(), func(sc mongo.SessionContext) error {
		changed = false
		now := time.Now()
		filter := bson.M{"id": paymentID, "status": models.PaymentPending}
		update := bson.M{"$set": bson.M{
			"status":       models.PaymentCompleted,
			"amount":       amount,
			"completed_at": now,
			"updated_at":   now,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := r.paymentColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&completed)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if err := r.paymentColl.FindOne(sc, bson.M{"id": paymentID}).Decode(&completed); err != nil {
				return fmt.Errorf("payment %s: %w", paymentID, repository.Translate(err))
			}
			if completed.Status == models.PaymentCompleted {
				return nil
			}
			return fmt.Errorf("payment %s is %s: %w", paymentID, completed.Status, repository.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to complete payment %s: %w", paymentID, err)
		}

		_, err = r.ledgerColl.UpdateOne(sc,
			bson.M{"booking_id": completed.BookingID},
			bson.M{"$setOnInsert": bson.M{"collected": int64(0)}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to open ledger for booking %s: %w", completed.BookingID, err)
		}
		res, err := r.ledgerColl.UpdateOne(sc,
			bson.M{"booking_id": completed.BookingID, "collected": bson.M{"$lte": bookingTotal - amount}},
			bson.M{"$inc": bson.M{"collected": amount}, "$set": bson.M{"updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("failed to update ledger for booking %s: %w", completed.BookingID, err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("payment %s of %d: %w", paymentID, amount, repository.ErrLedgerBound)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &completed, changed, nil
}

func (r *MongoPaymentRepo) FailPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	filter := bson.M{"id": paymentID, "status": models.PaymentPending}
	update := bson.M{"$set": bson.M{"status": models.PaymentFailed, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Payment
	err := r.paymentColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := r.GetPayment(ctx, paymentID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.PaymentFailed {
			return current, nil
		}
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, current.Status, repository.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment %s failed: %w", paymentID, err)
	}
	return &p, nil
}

func (r *MongoPaymentRepo) CollectedTotal(ctx context.Context, bookingID string) (int64, error) {
	ctx, cancel := repository.NewContext(ctx)
	defer cancel()

	var entry ledgerEntry
	err := r.ledgerColl.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger for booking %s: %w", bookingID, err)
	}
	return entry.Collected, nil
}
