package payment

import (
	"context"
	"errors"
	"fmt"

	"ceremonify/database/repository"
	"ceremonify/models"
	"ceremonify/services/pricing"

	"go.uber.org/zap"
)

// Schedule returns the booking's schedule, creating the default 50/50 one on first access.
func (t *DefaultTracker) Schedule(ctx context.Context, bookingID string) (*models.PaymentSchedule, error) {
	s, err := t.Payments.GetSchedule(ctx, bookingID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	def, err := models.DefaultPaymentSchedule(bookingID)
	if err != nil {
		return nil, err
	}
	return t.Payments.CreateScheduleIfAbsent(ctx, def)
}

// InitSchedule stores a schedule derived from policy unless the booking already has one.
func (t *DefaultTracker) InitSchedule(ctx context.Context, booking *models.Booking, policy models.AdvancePolicy) (*models.PaymentSchedule, error) {
	s, err := models.ScheduleForPolicy(booking.ID, policy)
	if err != nil {
		return nil, fmt.Errorf("invalid advance policy: %w", err)
	}
	return t.Payments.CreateScheduleIfAbsent(ctx, s)
}

// confirmSchedule pins the schedule to policy at confirmation. A schedule
// stored earlier is replaced while nothing has been collected against it.
func (t *DefaultTracker) confirmSchedule(ctx context.Context, booking *models.Booking, policy models.AdvancePolicy) (*models.PaymentSchedule, error) {
	payments, err := t.Payments.ListPayments(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if len(payments) > 0 {
		return t.InitSchedule(ctx, booking, policy)
	}
	s, err := models.ScheduleForPolicy(booking.ID, policy)
	if err != nil {
		return nil, fmt.Errorf("invalid advance policy: %w", err)
	}
	return t.Payments.ReplaceUntouchedSchedule(ctx, s)
}

// CurrentObligation prices the current milestone. A booking that is not
// confirmed yet is quoted from the default schedule without storing it.
func (t *DefaultTracker) CurrentObligation(ctx context.Context, bookingID string) (*models.Obligation, error) {
	booking, err := t.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var s *models.PaymentSchedule
	if booking.Status.Blocks() {
		s, err = t.Schedule(ctx, booking.ID)
	} else {
		s, err = t.Payments.GetSchedule(ctx, booking.ID)
		if errors.Is(err, repository.ErrNotFound) {
			s, err = models.DefaultPaymentSchedule(booking.ID)
		}
	}
	if err != nil {
		return nil, err
	}
	return t.obligation(ctx, booking, s)
}

// obligation prices the current milestone, capped to what is still owed.
// It is nil once the schedule is fully paid or nothing remains.
func (t *DefaultTracker) obligation(ctx context.Context, booking *models.Booking, s *models.PaymentSchedule) (*models.Obligation, error) {
	if s.FullyPaid() {
		return nil, nil
	}
	remaining, err := t.remaining(ctx, booking)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, nil
	}

	i := s.CurrentMilestone
	amount := pricing.MilestoneAmounts(booking.TotalAmount, s.Milestones)[i-1]
	if amount > remaining {
		amount = remaining
	}
	m := s.Milestones[i-1]
	return &models.Obligation{
		BookingID:   booking.ID,
		Milestone:   i,
		Percentage:  m.Percentage,
		Description: m.Description,
		Amount:      amount,
		PaymentType: s.TypeOf(i),
	}, nil
}

// AdvanceOnPaymentSuccess moves the schedule past milestone for paymentID. A
// payment that already advanced it, or a schedule that is no longer at
// milestone, leaves it untouched and reports false. milestone <= 0 means the
// schedule's current one.
func (t *DefaultTracker) AdvanceOnPaymentSuccess(ctx context.Context, bookingID, paymentID string, milestone int) (*models.PaymentSchedule, bool, error) {
	if paymentID == "" {
		return nil, false, fmt.Errorf("payment id is required to advance a schedule")
	}
	s, err := t.Schedule(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	if milestone <= 0 {
		milestone = s.CurrentMilestone
	}

	s, advanced, err := t.Payments.AdvanceMilestone(ctx, bookingID, paymentID, milestone)
	if err != nil {
		return nil, false, fmt.Errorf("failed to advance schedule: %w", err)
	}
	if !advanced {
		t.Logger.Debug("Schedule not advanced",
			zap.String("bookingId", bookingID),
			zap.String("paymentId", paymentID),
			zap.Int("milestone", milestone),
			zap.Int("current", s.CurrentMilestone))
		return s, false, nil
	}
	t.Logger.Info("Schedule advanced",
		zap.String("bookingId", bookingID),
		zap.String("paymentId", paymentID),
		zap.Int("current", s.CurrentMilestone),
		zap.Int("total", s.TotalMilestones))
	return s, true, nil
}

func (t *DefaultTracker) booking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := t.Bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (t *DefaultTracker) remaining(ctx context.Context, booking *models.Booking) (int64, error) {
	collected, err := t.Payments.CollectedTotal(ctx, booking.ID)
	if err != nil {
		return 0, err
	}
	return booking.TotalAmount - collected, nil
}
