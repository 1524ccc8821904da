package memoryRepo

import (
	"context"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"
)

type providerStore struct{ *Store }

func (s *providerStore) GetByID(_ context.Context, id string) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (s *providerStore) Save(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider.UpdatedAt = time.Now()
	s.providers[provider.ID] = *provider
	return nil
}

func (s *providerStore) UpdateAdvancePolicy(_ context.Context, id string, policy models.AdvancePolicy) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, repository.ErrNotFound)
	}
	p.AdvancePolicy = policy
	p.UpdatedAt = time.Now()
	s.providers[id] = p
	return &p, nil
}
