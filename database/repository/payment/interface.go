package paymentRepo

import (
	"context"
	"time"

	"ceremonify/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentRepository stores payment schedules, payments, and the per-booking
// collected total that bounds them.
type PaymentRepository interface {
	GetSchedule(ctx context.Context, bookingID string) (*models.PaymentSchedule, error)
	// CreateScheduleIfAbsent inserts schedule unless one exists and returns the stored schedule.
	CreateScheduleIfAbsent(ctx context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error)
	// ReplaceUntouchedSchedule stores schedule over one that has not advanced
	// yet, or inserts it when none exists. An advanced schedule is kept and
	// returned as is.
	ReplaceUntouchedSchedule(ctx context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error)
	// AdvanceMilestone moves the schedule from expected to expected+1 and records
	// paymentID, unless paymentID was already applied or the schedule is elsewhere.
	// The bool reports whether the schedule moved.
	AdvanceMilestone(ctx context.Context, bookingID, paymentID string, expected int) (*models.PaymentSchedule, bool, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentBySession(ctx context.Context, sessionToken string) (*models.Payment, error)
	FindPendingMilestonePayment(ctx context.Context, bookingID string, milestone int) (*models.Payment, error)
	ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error)
	UpdateSession(ctx context.Context, paymentID, sessionToken, redirectURL string) error
	// RecordCollectionAttempt counts one more gateway attempt on a pending
	// payment and returns the new count.
	RecordCollectionAttempt(ctx context.Context, paymentID string) (int, error)
	// CompletePayment marks a pending payment completed for amount, provided the
	// booking's collected total stays within bookingTotal. A payment that is
	// already completed is returned with false and no error.
	CompletePayment(ctx context.Context, paymentID string, amount, bookingTotal int64) (*models.Payment, bool, error)
	FailPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	CollectedTotal(ctx context.Context, bookingID string) (int64, error)
}

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	scheduleColl *mongo.Collection
	paymentColl  *mongo.Collection
	ledgerColl   *mongo.Collection
}

// NewMongoPaymentRepo constructs a new instance of MongoPaymentRepo.
func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	return &MongoPaymentRepo{
		scheduleColl: db.Collection("payment_schedules"),
		paymentColl:  db.Collection("payments"),
		ledgerColl:   db.Collection("payment_ledgers"),
	}
}

// ledgerEntry is the running collected total of one booking.
type ledgerEntry struct {
	BookingID string    `bson:"booking_id"`
	Collected int64     `bson:"collected"`
	UpdatedAt time.Time `bson:"updated_at"`
}
