package booking

import (
	"context"
	"errors"
	"fmt"

	"ceremonify/database/repository"
	"ceremonify/metrics"
	"ceremonify/models"
	"ceremonify/services/availability"
	"ceremonify/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBooking validates, checks availability, prices and stores a pending
// booking. Nothing is read or written for a malformed request.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	b, err := s.createBooking(ctx, req)
	var ae *AdmissionError
	switch {
	case err == nil:
		metrics.IncAdmission("admitted")
	case errors.As(err, &ae):
		metrics.IncAdmission(string(ae.Kind))
	default:
		metrics.IncAdmission("error")
	}
	return b, err
}

func (s *DefaultBookingService) createBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if _, err := models.ParseDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, NewAdmissionError(InvalidRange, err.Error())
	}
	booking, err := models.NewBooking(models.BookingParams{
		UserID:              req.UserID,
		ProviderID:          req.ProviderID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		TimeSlot:            req.TimeSlot,
		SpecialRequirements: req.SpecialRequirements,
		PaymentPreference:   req.PaymentPreference,
	})
	if err != nil {
		return nil, NewAdmissionError(InvalidRequest, err.Error())
	}

	provider, err := s.Providers.GetByID(ctx, req.ProviderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAdmissionError(ProviderNotFound, fmt.Sprintf("provider %s does not exist", req.ProviderID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}

	res, err := s.Checker.IsAdmissible(ctx, req.ProviderID, req.StartDate, req.EndDate, req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("availability check failed: %w", err)
	}
	if !res.Admissible {
		return nil, &AdmissionError{Kind: SlotUnavailable, Message: res.Reason, Date: res.Date}
	}

	terms, err := pricing.ComputePricing(provider.BasePrice, booking.TotalDays, provider.AdvancePolicy)
	if err != nil {
		return nil, NewAdmissionError(InvalidRequest, fmt.Sprintf("booking cannot be priced: %v", err))
	}
	booking.ID = uuid.New().String()
	booking.TotalAmount = terms.TotalAmount
	booking.AdvanceAmount = terms.AdvanceAmount
	booking.FinalAmount = terms.FinalAmount
	booking.Currency = provider.Currency
	if booking.Currency == "" {
		booking.Currency = s.DefaultCurrency
	}

	if err := s.Bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}
	s.Logger.Info("Booking created",
		zap.String("bookingId", booking.ID),
		zap.String("providerId", booking.ProviderID),
		zap.String("start", booking.StartDate),
		zap.Int("days", booking.TotalDays),
		zap.Int64("total", booking.TotalAmount))

	if err := s.createChannel(ctx, booking); err != nil {
		s.Logger.Warn("Channel creation deferred",
			zap.String("bookingId", booking.ID), zap.Error(err))
		if err := s.Retries.ScheduleChannelRetry(ctx, booking.ID); err != nil {
			s.Logger.Error("Failed to schedule channel retry", zap.String("bookingId", booking.ID), zap.Error(err))
		}
	} else {
		booking.ChannelStatus = models.ChannelCreated
	}
	return booking, nil
}

func (s *DefaultBookingService) CheckAvailability(ctx context.Context, providerID, startDate, endDate, timeSlot string) (availability.Result, error) {
	return s.Checker.IsAdmissible(ctx, providerID, startDate, endDate, timeSlot)
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	return b, err
}
