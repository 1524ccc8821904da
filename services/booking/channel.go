package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnsureChannel creates the booking's communication channel if it is still owed.
// It is safe to call repeatedly.
func (s *DefaultBookingService) EnsureChannel(ctx context.Context, bookingID string) error {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ChannelStatus == models.ChannelCreated {
		return nil
	}
	if err := s.createChannel(ctx, b); err != nil {
		return err
	}
	s.Logger.Info("Channel created on retry", zap.String("bookingId", bookingID))
	return nil
}

func (s *DefaultBookingService) createChannel(ctx context.Context, b *models.Booking) error {
	ch := &models.Channel{
		ID:         uuid.New().String(),
		BookingID:  b.ID,
		UserID:     b.UserID,
		ProviderID: b.ProviderID,
		CreatedAt:  time.Now(),
	}
	if err := s.Channels.Create(ctx, ch); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	if err := s.Bookings.SetChannelStatus(ctx, b.ID, models.ChannelCreated); err != nil {
		return fmt.Errorf("failed to mark channel created: %w", err)
	}
	return nil
}

func (s *DefaultBookingService) ListChannelPending(ctx context.Context, limit int) ([]models.Booking, error) {
	return s.Bookings.ListByChannelStatus(ctx, models.ChannelPending, limit)
}
