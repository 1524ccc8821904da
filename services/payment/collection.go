package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/metrics"
	"ceremonify/models"
	"ceremonify/services/gateway"
	"ceremonify/services/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const customDescription = "Provider payment request"

func payable(b *models.Booking) error {
	if !b.Status.Blocks() {
		return fmt.Errorf("%w: booking %s is %s", ErrNotPayable, b.ID, b.Status)
	}
	return nil
}

// OpenFirstCollection pins the schedule to the provider's current policy and
// opens a collection for the first obligation. It returns nil, nil when
// nothing is owed. Any failure is returned as a *CollectionError and retried
// out of band; the booking itself is never touched.
func (t *DefaultTracker) OpenFirstCollection(ctx context.Context, booking *models.Booking) (*models.Payment, error) {
	p, err := t.openFirstCollection(ctx, booking)
	if errors.Is(err, ErrNothingDue) {
		return nil, nil
	}
	if err == nil {
		return p, nil
	}

	var ce *CollectionError
	if errors.As(err, &ce) {
		return p, ce
	}
	t.scheduleRetry(ctx, tasks.CollectionPayload{BookingID: booking.ID})
	return nil, &CollectionError{BookingID: booking.ID, Err: err}
}

func (t *DefaultTracker) openFirstCollection(ctx context.Context, booking *models.Booking) (*models.Payment, error) {
	provider, err := t.Providers.GetByID(ctx, booking.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider policy: %w", err)
	}
	s, err := t.confirmSchedule(ctx, booking, provider.AdvancePolicy)
	if err != nil {
		return nil, err
	}
	return t.collectObligation(ctx, booking, s)
}

// InitiatePayment opens (or returns the already open) collection for what the customer owes now.
func (t *DefaultTracker) InitiatePayment(ctx context.Context, bookingID string) (*models.Payment, error) {
	booking, err := t.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := payable(booking); err != nil {
		return nil, err
	}
	s, err := t.Schedule(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	return t.collectObligation(ctx, booking, s)
}

func (t *DefaultTracker) collectObligation(ctx context.Context, booking *models.Booking, s *models.PaymentSchedule) (*models.Payment, error) {
	ob, err := t.obligation(ctx, booking, s)
	if err != nil {
		return nil, err
	}
	if ob == nil {
		return nil, ErrNothingDue
	}

	existing, err := t.Payments.FindPendingMilestonePayment(ctx, booking.ID, ob.Milestone)
	switch {
	case err == nil && existing.SessionToken != "":
		return existing, nil
	case err == nil:
		return t.openSession(ctx, booking, existing)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	p := t.newPayment(booking, ob.Amount, ob.PaymentType, ob.Description)
	p.Milestone = ob.Milestone
	if err := t.Payments.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return t.openSession(ctx, booking, p)
}

// RequestCustomPayment opens a provider-requested collection outside the
// schedule. It never moves the current milestone.
func (t *DefaultTracker) RequestCustomPayment(ctx context.Context, bookingID string, amount int64, description string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}
	booking, err := t.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := payable(booking); err != nil {
		return nil, err
	}
	remaining, err := t.remaining(ctx, booking)
	if err != nil {
		return nil, err
	}
	if amount > remaining {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", ErrExceedsRemainingBalance, amount, remaining)
	}

	paymentType := models.PaymentAdvance
	if amount >= remaining {
		paymentType = models.PaymentFinal
	}
	if description == "" {
		description = customDescription
	}
	p := t.newPayment(booking, amount, paymentType, description)
	p.IsProviderRequested = true
	if err := t.Payments.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return t.openSession(ctx, booking, p)
}

// RetryCollection reopens the gateway session of a pending payment.
func (t *DefaultTracker) RetryCollection(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := t.Payments.GetPayment(ctx, paymentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPending, p.ID, p.Status)
	}
	if p.SessionToken != "" {
		return p, nil
	}
	booking, err := t.booking(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	return t.openSession(ctx, booking, p)
}

func (t *DefaultTracker) newPayment(booking *models.Booking, amount int64, paymentType models.PaymentType, description string) *models.Payment {
	currency := booking.Currency
	if currency == "" {
		currency = t.DefaultCurrency
	}
	now := time.Now()
	return &models.Payment{
		ID:              uuid.New().String(),
		BookingID:       booking.ID,
		RequestedAmount: amount,
		Currency:        currency,
		PaymentType:     paymentType,
		Status:          models.PaymentPending,
		Description:     description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// openSession asks the gateway for a collection point and stores it on the
// payment. A gateway failure leaves the payment pending and schedules a retry.
func (t *DefaultTracker) openSession(ctx context.Context, booking *models.Booking, p *models.Payment) (*models.Payment, error) {
	attempt, err := t.Payments.RecordCollectionAttempt(ctx, p.ID)
	if err != nil {
		return p, fmt.Errorf("failed to record collection attempt: %w", err)
	}
	p.CollectionAttempts = attempt

	session, err := t.Gateway.OpenCollection(ctx, gateway.CollectionRequest{
		BookingID:   booking.ID,
		PaymentID:   p.ID,
		PaymentType: p.PaymentType,
		Amount:      p.RequestedAmount,
		Currency:    p.Currency,
		Description: p.Description,
		Attempt:     attempt,
	})
	if err != nil {
		t.Logger.Warn("Payment gateway unavailable",
			zap.String("bookingId", booking.ID),
			zap.String("paymentId", p.ID),
			zap.Error(err))
		metrics.IncCollection("failed")
		t.scheduleRetry(ctx, tasks.CollectionPayload{BookingID: booking.ID, PaymentID: p.ID})
		return p, &CollectionError{BookingID: booking.ID, Payment: p, Err: err}
	}

	if err := t.Payments.UpdateSession(ctx, p.ID, session.SessionToken, session.RedirectURL); err != nil {
		return p, fmt.Errorf("failed to store collection session: %w", err)
	}
	metrics.IncCollection("opened")
	p.SessionToken = session.SessionToken
	p.RedirectURL = session.RedirectURL
	t.Logger.Info("Collection opened",
		zap.String("bookingId", booking.ID),
		zap.String("paymentId", p.ID),
		zap.String("type", string(p.PaymentType)),
		zap.Int64("amount", p.RequestedAmount))
	return p, nil
}

func (t *DefaultTracker) scheduleRetry(ctx context.Context, payload tasks.CollectionPayload) {
	if err := t.Retries.ScheduleCollectionRetry(ctx, payload); err != nil {
		t.Logger.Error("Failed to schedule collection retry",
			zap.String("bookingId", payload.BookingID),
			zap.String("paymentId", payload.PaymentID),
			zap.Error(err))
	}
}
