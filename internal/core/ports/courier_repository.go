package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// CourierRepository defines persistence operations for courier profiles.
type CourierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CourierProfile, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, loc domain.Coordinates, at time.Time) error
}
