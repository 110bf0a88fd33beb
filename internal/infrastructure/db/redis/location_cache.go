package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shipmate/marketplace/internal/core/domain"
)

const locationTTL = 15 * time.Minute

// LocationCache keeps courier last-known positions in Redis so hot matching
// reads never touch the profile store.
// Key format: courier:location:<courier_id>
type LocationCache struct {
	client *redis.Client
}

// NewLocationCache creates a LocationCache wrapping the given Redis client.
func NewLocationCache(client *redis.Client) *LocationCache {
	return &LocationCache{client: client}
}

type locationEntry struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

// Get returns the cached position, or (nil, nil, nil) on a cache miss.
func (c *LocationCache) Get(ctx context.Context, courierID uuid.UUID) (*domain.Coordinates, *time.Time, error) {
	raw, err := c.client.Get(ctx, c.key(courierID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("location cache get: %w", err)
	}

	var entry locationEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, nil, fmt.Errorf("location cache decode: %w", err)
	}
	return &domain.Coordinates{Lat: entry.Lat, Lng: entry.Lng}, &entry.At, nil
}

// Set records the position (expires after locationTTL).
func (c *LocationCache) Set(ctx context.Context, courierID uuid.UUID, loc domain.Coordinates, at time.Time) error {
	raw, err := json.Marshal(locationEntry{Lat: loc.Lat, Lng: loc.Lng, At: at})
	if err != nil {
		return fmt.Errorf("location cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(courierID), raw, locationTTL).Err()
}

func (c *LocationCache) key(courierID uuid.UUID) string {
	return fmt.Sprintf("courier:location:%s", courierID)
}
