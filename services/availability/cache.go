package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	availabilityRepo "ceremonify/database/repository/availability"
	"ceremonify/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// noHours marks a cached "provider does not work that day".
const noHours = "-"

// CachedStore is a read-through redis cache in front of an AvailabilityRepository.
// Get is cached per (provider, weekday), including misses; writes invalidate.
// Redis failures degrade to the underlying store.
type CachedStore struct {
	availabilityRepo.AvailabilityRepository

	Cache  redis.Cmdable
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedStore(store availabilityRepo.AvailabilityRepository, cache redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedStore {
	return &CachedStore{AvailabilityRepository: store, Cache: cache, TTL: ttl, Logger: logger}
}

func cacheKey(providerID string, day time.Weekday) string {
	return fmt.Sprintf("availability:%s:%d", providerID, day)
}

func (c *CachedStore) Get(ctx context.Context, providerID string, day time.Weekday) (*models.AvailabilitySlot, error) {
	key := cacheKey(providerID, day)

	raw, err := c.Cache.Get(ctx, key).Result()
	switch {
	case err == nil && raw == noHours:
		return nil, fmt.Errorf("no availability for provider %s on %s: %w", providerID, day, repository.ErrNotFound)
	case err == nil:
		var slot models.AvailabilitySlot
		if jsonErr := json.Unmarshal([]byte(raw), &slot); jsonErr == nil {
			return &slot, nil
		}
		c.Logger.Warn("Dropping corrupt availability cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
	}

	slot, err := c.AvailabilityRepository.Get(ctx, providerID, day)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.store(ctx, key, noHours)
		return nil, err
	case err != nil:
		return nil, err
	}
	if data, jsonErr := json.Marshal(slot); jsonErr == nil {
		c.store(ctx, key, string(data))
	}
	return slot, nil
}

func (c *CachedStore) Upsert(ctx context.Context, slot models.AvailabilitySlot) error {
	if err := c.AvailabilityRepository.Upsert(ctx, slot); err != nil {
		return err
	}
	c.invalidate(ctx, slot.ProviderID, slot.DayOfWeek)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, providerID string, day time.Weekday) error {
	if err := c.AvailabilityRepository.Delete(ctx, providerID, day); err != nil {
		return err
	}
	c.invalidate(ctx, providerID, day)
	return nil
}

func (c *CachedStore) store(ctx context.Context, key, value string) {
	if err := c.Cache.Set(ctx, key, value, c.TTL).Err(); err != nil {
		c.Logger.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedStore) invalidate(ctx context.Context, providerID string, day time.Weekday) {
	key := cacheKey(providerID, day)
	if err := c.Cache.Del(ctx, key).Err(); err != nil {
		c.Logger.Error("Failed to invalidate availability cache", zap.String("key", key), zap.Error(err))
	}
}
