package memoryRepo

import (
	"context"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"
)

type bookingStore struct{ *Store }

func (s *bookingStore) Create(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[booking.ID]; ok {
		return fmt.Errorf("booking %s: %w", booking.ID, repository.ErrDuplicate)
	}
	s.bookings[booking.ID] = *booking
	s.bookingOrder = append(s.bookingOrder, booking.ID)
	return nil
}

func (s *bookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	return &b, nil
}

func (s *bookingStore) FindBlocking(_ context.Context, providerID, date, timeSlot string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Booking
	for _, id := range s.bookingOrder {
		b := s.bookings[id]
		if b.ProviderID != providerID || b.TimeSlot != timeSlot || !b.Status.Blocks() {
			continue
		}
		if b.StartDate <= date && date <= b.EndDate {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingStore) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	if b.Status != from {
		return nil, fmt.Errorf("booking %s is no longer %s: %w", id, from, repository.ErrConflict)
	}

	switch {
	case to.Blocks() && !from.Blocks():
		claims, err := models.ClaimsFor(b)
		if err != nil {
			return nil, err
		}
		for _, c := range claims {
			if owner, taken := s.claims[claimKey{c.ProviderID, c.Date, c.TimeSlot}]; taken && owner != id {
				return nil, fmt.Errorf("slot %s %s held by booking %s: %w", c.Date, c.TimeSlot, owner, repository.ErrDuplicate)
			}
		}
		for _, c := range claims {
			s.claims[claimKey{c.ProviderID, c.Date, c.TimeSlot}] = id
		}
	case from.Blocks() && to == models.BookingCancelled:
		for k, owner := range s.claims {
			if owner == id {
				delete(s.claims, k)
			}
		}
	}

	b.Status = to
	b.UpdatedAt = time.Now()
	s.bookings[id] = b
	return &b, nil
}

func (s *bookingStore) SetChannelStatus(_ context.Context, id, status string) error {
	return s.set(id, func(b *models.Booking) { b.ChannelStatus = status })
}

func (s *bookingStore) SetPaymentStatus(_ context.Context, id, status string) error {
	return s.set(id, func(b *models.Booking) { b.PaymentStatus = status })
}

func (s *bookingStore) set(id string, mutate func(*models.Booking)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	mutate(&b)
	b.UpdatedAt = time.Now()
	s.bookings[id] = b
	return nil
}

func (s *bookingStore) ListByChannelStatus(_ context.Context, status string, limit int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Booking
	for _, id := range s.bookingOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		if b := s.bookings[id]; b.ChannelStatus == status {
			out = append(out, b)
		}
	}
	return out, nil
}
