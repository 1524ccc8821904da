package payment

import (
	"errors"
	"fmt"

	"ceremonify/models"
)

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrExceedsRemainingBalance = errors.New("amount exceeds remaining balance")
	ErrNothingDue              = errors.New("nothing is due on this booking")
	ErrNotPayable              = errors.New("booking does not accept payments in its current status")
	ErrPaymentNotPending       = errors.New("payment is no longer pending")
	ErrAmountMismatch          = errors.New("collected amount differs from the requested amount")
	// ErrGatewayUnavailable matches every *CollectionError.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// CollectionError reports that a collection could not be opened after the
// booking or payment was already stored. Payment is nil when the failure came
// before a payment record existed. A retry has been scheduled.
type CollectionError struct {
	BookingID string
	Payment   *models.Payment
	Err       error
}

func (e *CollectionError) Error() string {
	if e.Payment != nil {
		return fmt.Sprintf("collection for payment %s pending retry: %v", e.Payment.ID, e.Err)
	}
	return fmt.Sprintf("collection for booking %s pending retry: %v", e.BookingID, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

func (e *CollectionError) Is(target error) bool { return target == ErrGatewayUnavailable }
