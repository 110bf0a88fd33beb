package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// LocationCache abstracts the hot cache in front of courier last-known
// locations (Redis). A nil result with nil error is a cache miss.
type LocationCache interface {
	Get(ctx context.Context, courierID uuid.UUID) (*domain.Coordinates, *time.Time, error)
	Set(ctx context.Context, courierID uuid.UUID, loc domain.Coordinates, at time.Time) error
}

// CourierService implements ports.CourierService.
type CourierService struct {
	repo   ports.CourierRepository
	cache  LocationCache
	logger zerolog.Logger
}

func NewCourierService(repo ports.CourierRepository, cache LocationCache, logger zerolog.Logger) *CourierService {
	return &CourierService{repo: repo, cache: cache, logger: logger}
}

// GetProfile returns the courier profile, overlaying a fresher cached
// location when one exists.
func (s *CourierService) GetProfile(ctx context.Context, courierID uuid.UUID) (*domain.CourierProfile, error) {
	profile, err := s.repo.FindByID(ctx, courierID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		loc, at, err := s.cache.Get(ctx, courierID)
		if err != nil {
			s.logger.Warn().Err(err).Str("courier_id", courierID.String()).Msg("location cache read failed")
		} else if loc != nil && (profile.LastLocationAt == nil || at.After(*profile.LastLocationAt)) {
			profile.LastLocation = loc
			profile.LastLocationAt = at
		}
	}

	return profile, nil
}

// UpdateLocation records the courier's position in the store and writes
// through to the cache. Cache failures are non-fatal.
func (s *CourierService) UpdateLocation(ctx context.Context, courierID uuid.UUID, loc domain.Coordinates) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLocation(ctx, courierID, loc, now); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, courierID, loc, now); err != nil {
			s.logger.Warn().Err(err).Str("courier_id", courierID.String()).Msg("location cache write failed")
		}
	}

	s.logger.Debug().
		Str("courier_id", courierID.String()).
		Float64("lat", loc.Lat).
		Float64("lng", loc.Lng).
		Msg("courier location updated")

	return nil
}
