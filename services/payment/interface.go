// Package payment tracks how much of a booking has been collected and what
// the customer owes next.
package payment

import (
	"context"

	bookingRepo "ceremonify/database/repository/booking"
	paymentRepo "ceremonify/database/repository/payment"
	providerRepo "ceremonify/database/repository/provider"
	"ceremonify/models"
	"ceremonify/services/gateway"
	"ceremonify/services/tasks"

	"go.uber.org/zap"
)

// Tracker is the payment milestone state machine plus the collection paths around it.
type Tracker interface {
	Schedule(ctx context.Context, bookingID string) (*models.PaymentSchedule, error)
	InitSchedule(ctx context.Context, booking *models.Booking, policy models.AdvancePolicy) (*models.PaymentSchedule, error)
	CurrentObligation(ctx context.Context, bookingID string) (*models.Obligation, error)
	AdvanceOnPaymentSuccess(ctx context.Context, bookingID, paymentID string, milestone int) (*models.PaymentSchedule, bool, error)

	OpenFirstCollection(ctx context.Context, booking *models.Booking) (*models.Payment, error)
	InitiatePayment(ctx context.Context, bookingID string) (*models.Payment, error)
	RequestCustomPayment(ctx context.Context, bookingID string, amount int64, description string) (*models.Payment, error)
	RetryCollection(ctx context.Context, paymentID string) (*models.Payment, error)
	OnPaymentResult(ctx context.Context, result gateway.PaymentResult) (*models.Payment, error)
	ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error)
}

// DefaultTracker implements Tracker over the payment and booking stores.
type DefaultTracker struct {
	Payments  paymentRepo.PaymentRepository
	Bookings  bookingRepo.BookingRepository
	Providers providerRepo.ProviderRepository
	Gateway   gateway.Gateway
	Retries   tasks.Scheduler
	Logger    *zap.Logger

	// DefaultCurrency applies to bookings stored without one.
	DefaultCurrency string
}
