package payment

import (
	"context"
	"errors"
	"fmt"

	"ceremonify/database/repository"
	"ceremonify/metrics"
	"ceremonify/models"
	"ceremonify/services/gateway"

	"go.uber.org/zap"
)

// OnPaymentResult applies a verified gateway callback. Redelivered successes
// are absorbed: the payment completes once and the schedule advances once.
func (t *DefaultTracker) OnPaymentResult(ctx context.Context, result gateway.PaymentResult) (*models.Payment, error) {
	p, err := t.resolvePayment(ctx, result)
	if err != nil {
		return nil, err
	}

	if result.Outcome != gateway.OutcomeSucceeded {
		failed, err := t.Payments.FailPayment(ctx, p.ID)
		if errors.Is(err, repository.ErrConflict) {
			t.Logger.Warn("Ignoring failure callback for settled payment",
				zap.String("paymentId", p.ID), zap.String("status", string(p.Status)))
			return p, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		t.Logger.Info("Payment failed", zap.String("bookingId", p.BookingID), zap.String("paymentId", p.ID))
		metrics.IncCallback("failed")
		return failed, nil
	}

	booking, err := t.booking(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	amount := result.Amount
	if amount <= 0 {
		amount = p.RequestedAmount
	}
	// A milestone is paid by exactly its requested amount, never by a partial
	// or inflated capture.
	if amount != p.RequestedAmount {
		metrics.IncCallback("rejected")
		t.Logger.Error("Collected amount does not match request",
			zap.String("bookingId", p.BookingID),
			zap.String("paymentId", p.ID),
			zap.Int64("amount", amount),
			zap.Int64("requested", p.RequestedAmount))
		return nil, fmt.Errorf("%w: got %d, requested %d", ErrAmountMismatch, amount, p.RequestedAmount)
	}

	completed, changed, err := t.Payments.CompletePayment(ctx, p.ID, amount, booking.TotalAmount)
	switch {
	case errors.Is(err, repository.ErrLedgerBound):
		metrics.IncCallback("rejected")
		t.Logger.Error("Payment would exceed booking total",
			zap.String("bookingId", booking.ID),
			zap.String("paymentId", p.ID),
			zap.Int64("amount", amount),
			zap.Int64("total", booking.TotalAmount))
		return nil, fmt.Errorf("%w: %v", ErrExceedsRemainingBalance, err)
	case errors.Is(err, repository.ErrConflict):
		metrics.IncCallback("rejected")
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotPending, err)
	case err != nil:
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}
	if changed {
		metrics.IncCallback("completed")
	} else {
		metrics.IncCallback("duplicate")
		t.Logger.Info("Duplicate success callback", zap.String("paymentId", p.ID))
	}

	// Advancing again after a redelivery is a no-op, and it finishes the job
	// if a previous delivery stopped between completion and advance.
	if completed.Milestone > 0 && !completed.IsProviderRequested {
		if _, _, err := t.AdvanceOnPaymentSuccess(ctx, booking.ID, completed.ID, completed.Milestone); err != nil {
			return nil, err
		}
	}
	if err := t.refreshPaymentStatus(ctx, booking); err != nil {
		t.Logger.Error("Failed to refresh booking payment status", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	return completed, nil
}

func (t *DefaultTracker) resolvePayment(ctx context.Context, result gateway.PaymentResult) (*models.Payment, error) {
	var (
		p   *models.Payment
		err error
	)
	if result.PaymentID != "" {
		p, err = t.Payments.GetPayment(ctx, result.PaymentID)
	} else {
		p, err = t.Payments.GetPaymentBySession(ctx, result.SessionToken)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: session %q payment %q", ErrPaymentNotFound, result.SessionToken, result.PaymentID)
	}
	return p, err
}

func (t *DefaultTracker) refreshPaymentStatus(ctx context.Context, booking *models.Booking) error {
	collected, err := t.Payments.CollectedTotal(ctx, booking.ID)
	if err != nil {
		return err
	}
	status := models.PaymentStatusPartiallyPaid
	switch {
	case collected <= 0:
		status = models.PaymentStatusUnpaid
	case collected >= booking.TotalAmount:
		status = models.PaymentStatusPaid
	}
	if status == booking.PaymentStatus {
		return nil
	}
	return t.Bookings.SetPaymentStatus(ctx, booking.ID, status)
}

func (t *DefaultTracker) ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error) {
	if _, err := t.booking(ctx, bookingID); err != nil {
		return nil, err
	}
	return t.Payments.ListPayments(ctx, bookingID)
}
