package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// FindMatchesInput carries all parameters for a matching request.
// Lat/Lng are optional; when nil the courier's last known location is used.
// BookingID is optional and switches the scorer into consolidation mode
// against that booking's existing route.
type FindMatchesInput struct {
	CourierID  uuid.UUID
	Lat        *float64
	Lng        *float64
	BookingID  *uuid.UUID
	RadiusKm   float64 // <= 0 is rejected; callers apply the configured default
	MaxResults int     // <= 0 is rejected; callers apply the configured default
	Page       int     // 1-based scan window over open shipments
}

// MatchResult pairs a candidate shipment with its computed metrics.
type MatchResult struct {
	Shipment *domain.Shipment
	Metrics  domain.MatchingMetrics
}

// MatchingService finds and ranks bookable shipments for a courier.
// Matching never mutates state and is safe for unlimited parallel calls.
type MatchingService interface {
	FindMatches(ctx context.Context, in FindMatchesInput) ([]MatchResult, error)
}
