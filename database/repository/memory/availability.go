package memoryRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"
)

type availabilityStore struct{ *Store }

func (s *availabilityStore) Upsert(_ context.Context, slot models.AvailabilitySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot.UpdatedAt = time.Now()
	s.availability[availabilityKey{slot.ProviderID, int(slot.DayOfWeek)}] = slot
	return nil
}

func (s *availabilityStore) Get(_ context.Context, providerID string, day time.Weekday) (*models.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.availability[availabilityKey{providerID, int(day)}]
	if !ok {
		return nil, fmt.Errorf("no availability for provider %s on %s: %w", providerID, day, repository.ErrNotFound)
	}
	return &slot, nil
}

func (s *availabilityStore) ListByProvider(_ context.Context, providerID string) ([]models.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := []models.AvailabilitySlot{}
	for k, slot := range s.availability {
		if k.providerID == providerID {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].DayOfWeek < slots[j].DayOfWeek })
	return slots, nil
}

func (s *availabilityStore) Delete(_ context.Context, providerID string, day time.Weekday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := availabilityKey{providerID, int(day)}
	if _, ok := s.availability[key]; !ok {
		return fmt.Errorf("no availability for provider %s on %s: %w", providerID, day, repository.ErrNotFound)
	}
	delete(s.availability, key)
	return nil
}
