package memoryRepo

import (
	"context"
	"fmt"

	"ceremonify/database/repository"
	"ceremonify/models"
)

type channelStore struct{ *Store }

func (s *channelStore) Create(_ context.Context, channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[channel.BookingID]; ok {
		return fmt.Errorf("channel for booking %s: %w", channel.BookingID, repository.ErrDuplicate)
	}
	s.channels[channel.BookingID] = *channel
	return nil
}

func (s *channelStore) GetByBookingID(_ context.Context, bookingID string) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[bookingID]
	if !ok {
		return nil, fmt.Errorf("channel for booking %s: %w", bookingID, repository.ErrNotFound)
	}
	return &ch, nil
}
