package booking

import (
	"context"
	"errors"
	"fmt"

	"ceremonify/database/repository"
	"ceremonify/metrics"
	"ceremonify/models"

	"go.uber.org/zap"
)

// TransitionBookingStatus moves a booking to status. The write is conditional
// on the status read here, and entering a blocking status claims the slot for
// every day of the range in the same write. Confirming a pay-now booking then
// opens the first collection; if that fails the confirmed booking is returned
// together with a *payment.CollectionError.
func (s *DefaultBookingService) TransitionBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	current, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if !from.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	updated, err := s.Bookings.UpdateStatus(ctx, bookingID, from, status)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, s.slotTaken(ctx, current)
	case errors.Is(err, repository.ErrConflict):
		return nil, fmt.Errorf("%w: %s", ErrStatusConflict, bookingID)
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	case err != nil:
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	s.Logger.Info("Booking status changed",
		zap.String("bookingId", bookingID),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	metrics.IncTransition(string(status))

	if from == models.BookingPending && status == models.BookingConfirmed && updated.PaymentPreference == models.PayNow {
		if _, err := s.Tracker.OpenFirstCollection(ctx, updated); err != nil {
			s.Logger.Warn("First collection pending retry", zap.String("bookingId", bookingID), zap.Error(err))
			return updated, err
		}
	}
	return updated, nil
}

// slotTaken explains a lost claim race with the conflicting day when it can be found.
func (s *DefaultBookingService) slotTaken(ctx context.Context, b *models.Booking) error {
	res, err := s.Checker.IsAdmissible(ctx, b.ProviderID, b.StartDate, b.EndDate, b.TimeSlot)
	if err == nil && !res.Admissible {
		return &AdmissionError{Kind: SlotUnavailable, Message: res.Reason, Date: res.Date}
	}
	return NewAdmissionError(SlotUnavailable, fmt.Sprintf("slot %s is already booked within %s..%s", b.TimeSlot, b.StartDate, b.EndDate))
}
