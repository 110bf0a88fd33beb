package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// CourierService exposes courier profile reads and location updates.
type CourierService interface {
	GetProfile(ctx context.Context, courierID uuid.UUID) (*domain.CourierProfile, error)
	// UpdateLocation records the courier's last known position, which feeds
	// the matching location fallback.
	UpdateLocation(ctx context.Context, courierID uuid.UUID, loc domain.Coordinates) error
}
