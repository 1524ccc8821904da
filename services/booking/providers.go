package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"

	"go.uber.org/zap"
)

// SetAvailability replaces the provider's working hours for slot.DayOfWeek.
func (s *DefaultBookingService) SetAvailability(ctx context.Context, slot models.AvailabilitySlot) (*models.AvailabilitySlot, error) {
	valid, err := models.NewAvailabilitySlot(slot.ProviderID, slot.DayOfWeek, slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, NewAdmissionError(InvalidRequest, err.Error())
	}
	if err := s.Availability.Upsert(ctx, *valid); err != nil {
		return nil, fmt.Errorf("failed to store availability: %w", err)
	}
	s.Logger.Info("Availability updated",
		zap.String("providerId", valid.ProviderID),
		zap.String("day", valid.DayOfWeek.String()),
		zap.String("start", valid.StartTime),
		zap.String("end", valid.EndTime))
	return valid, nil
}

func (s *DefaultBookingService) ListAvailability(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	return s.Availability.ListByProvider(ctx, providerID)
}

func (s *DefaultBookingService) DeleteAvailability(ctx context.Context, providerID string, day time.Weekday) error {
	return s.Availability.Delete(ctx, providerID, day)
}

// UpdateAdvancePolicy changes how future collections are split. Schedules
// already created keep the policy they were created with.
func (s *DefaultBookingService) UpdateAdvancePolicy(ctx context.Context, providerID string, policy models.AdvancePolicy) (*models.Provider, error) {
	valid, err := models.NewAdvancePolicy(policy.RequiresAdvancePayment, policy.AdvancePaymentPercentage)
	if err != nil {
		return nil, NewAdmissionError(InvalidRequest, err.Error())
	}
	p, err := s.Providers.UpdateAdvancePolicy(ctx, providerID, valid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAdmissionError(ProviderNotFound, fmt.Sprintf("provider %s does not exist", providerID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update advance policy: %w", err)
	}
	return p, nil
}
