package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
	"github.com/shipmate/marketplace/pkg/geo"
)

// MatchingConfig holds the tunable parameters of the candidate locator and
// match scorer. Score weights are configuration; the monotonic contract
// (closer pickups and smaller detours score higher) is fixed.
type MatchingConfig struct {
	DefaultRadiusKm   float64
	DefaultMaxResults int
	// ScanLimit bounds how many open shipments one request pulls from the
	// store before radius filtering.
	ScanLimit int

	PickupWeight   int
	CapacityWeight int
	DetourWeight   int
	NoDetourBonus  int
	MaxScore       int
}

// DefaultMatchingConfig returns the launch matching parameters.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		DefaultRadiusKm:   25,
		DefaultMaxResults: 50,
		ScanLimit:         500,
		PickupWeight:      40,
		CapacityWeight:    30,
		DetourWeight:      20,
		NoDetourBonus:     10,
		MaxScore:          100,
	}
}

// MatchingService implements ports.MatchingService. It is a pure function of
// its inputs plus a read snapshot of shipment/courier data; nothing here
// mutates state.
type MatchingService struct {
	shipments ports.ShipmentRepository
	couriers  ports.CourierRepository
	bookings  ports.BookingRepository
	cfg       MatchingConfig
	logger    zerolog.Logger
}

func NewMatchingService(
	shipments ports.ShipmentRepository,
	couriers ports.CourierRepository,
	bookings ports.BookingRepository,
	cfg MatchingConfig,
	logger zerolog.Logger,
) *MatchingService {
	return &MatchingService{
		shipments: shipments,
		couriers:  couriers,
		bookings:  bookings,
		cfg:       cfg,
		logger:    logger,
	}
}

// FindMatches retrieves open shipments around the courier, scores them, and
// returns them ranked best-first. Truncation to MaxResults happens after
// sorting so ranking always sees the full candidate set within the radius.
func (s *MatchingService) FindMatches(ctx context.Context, in ports.FindMatchesInput) ([]ports.MatchResult, error) {
	if in.RadiusKm <= 0 {
		return nil, domain.ErrInvalidRadius
	}
	if in.MaxResults <= 0 {
		return nil, domain.ErrInvalidLimit
	}
	page := in.Page
	if page < 1 {
		page = 1
	}

	profile, err := s.couriers.FindByID(ctx, in.CourierID)
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	if !profile.Eligible() {
		return nil, domain.ErrCourierNotEligible
	}

	ref, err := s.resolveReferencePoint(in, profile)
	if err != nil {
		return nil, err
	}

	booking, routeStops, residualKg, err := s.resolveBookingContext(ctx, in, profile)
	if err != nil {
		return nil, err
	}

	candidates, err := s.shipments.ListOpen(ctx, page, s.cfg.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("find matches: list open shipments: %w", err)
	}

	results := make([]ports.MatchResult, 0, len(candidates))
	for _, cand := range candidates {
		if !cand.Open() {
			continue
		}

		// Cheap residual-capacity pre-filter before any scoring work.
		if booking != nil && cand.WeightKg.GreaterThan(residualKg) {
			continue
		}

		distanceToPickup := geo.Kilometers(ref.Lat, ref.Lng, cand.PickupLocation.Lat, cand.PickupLocation.Lng)
		if distanceToPickup > in.RadiusKm {
			continue
		}

		pickupToDelivery := geo.Kilometers(
			cand.PickupLocation.Lat, cand.PickupLocation.Lng,
			cand.DeliveryLocation.Lat, cand.DeliveryLocation.Lng,
		)

		var detour *float64
		if booking != nil && len(routeStops) > 0 {
			d := estimateDetourKm(ref, routeStops, cand.PickupLocation, cand.DeliveryLocation)
			detour = &d
		}

		results = append(results, ports.MatchResult{
			Shipment: cand,
			Metrics: domain.MatchingMetrics{
				DistanceToPickupKm: roundKm(distanceToPickup),
				PickupToDeliveryKm: roundKm(pickupToDelivery),
				EstimatedDetourKm:  detour,
				Score:              s.score(distanceToPickup, cand.WeightKg, residualKg, detour),
			},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Metrics.Score != b.Metrics.Score {
			return a.Metrics.Score > b.Metrics.Score
		}
		if a.Metrics.DistanceToPickupKm != b.Metrics.DistanceToPickupKm {
			return a.Metrics.DistanceToPickupKm < b.Metrics.DistanceToPickupKm
		}
		// Fairness to earlier senders.
		return a.Shipment.CreatedAt.Before(b.Shipment.CreatedAt)
	})

	if len(results) > in.MaxResults {
		results = results[:in.MaxResults]
	}

	s.logger.Debug().
		Str("courier_id", in.CourierID.String()).
		Int("candidates", len(candidates)).
		Int("matches", len(results)).
		Float64("radius_km", in.RadiusKm).
		Msg("matching completed")

	return results, nil
}

// resolveReferencePoint picks the explicit location when supplied, otherwise
// the courier's last known position.
func (s *MatchingService) resolveReferencePoint(in ports.FindMatchesInput, profile *domain.CourierProfile) (domain.Coordinates, error) {
	if in.Lat != nil && in.Lng != nil {
		ref := domain.Coordinates{Lat: *in.Lat, Lng: *in.Lng}
		if err := ref.Validate(); err != nil {
			return domain.Coordinates{}, err
		}
		return ref, nil
	}
	if profile.LastLocation != nil {
		return *profile.LastLocation, nil
	}
	return domain.Coordinates{}, domain.ErrNoLocationAvailable
}

// resolveBookingContext loads the consolidation target when a booking id is
// supplied, returning its ordered route stops and the courier's residual
// weight capacity.
func (s *MatchingService) resolveBookingContext(
	ctx context.Context,
	in ports.FindMatchesInput,
	profile *domain.CourierProfile,
) (*domain.Booking, []domain.Coordinates, decimal.Decimal, error) {
	if in.BookingID == nil {
		return nil, nil, profile.MaxWeightCapacityKg, nil
	}

	booking, err := s.bookings.FindByID(ctx, *in.BookingID)
	if err != nil {
		return nil, nil, decimal.Zero, fmt.Errorf("find matches: %w", err)
	}
	if booking.CourierID != in.CourierID {
		return nil, nil, decimal.Zero, domain.ErrForbidden
	}
	if booking.Status != domain.BookingActive {
		return nil, nil, decimal.Zero, domain.ErrBookingNotActive
	}

	members, err := s.shipments.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, nil, decimal.Zero, fmt.Errorf("find matches: load booking shipments: %w", err)
	}

	used := decimal.Zero
	for _, m := range members {
		used = used.Add(m.WeightKg)
	}
	residual := profile.MaxWeightCapacityKg.Sub(used)
	if residual.Sign() < 0 {
		residual = decimal.Zero
	}

	return booking, routeStops(members), residual, nil
}

// routeStops flattens a booking's member shipments into their ordered stop
// sequence (pickup and delivery slots interleaved by assigned index).
func routeStops(members []*domain.Shipment) []domain.Coordinates {
	type stop struct {
		order int
		loc   domain.Coordinates
	}
	stops := make([]stop, 0, 2*len(members))
	for _, m := range members {
		if m.PickupOrder != nil {
			stops = append(stops, stop{order: *m.PickupOrder, loc: m.PickupLocation})
		}
		if m.DeliveryOrder != nil {
			stops = append(stops, stop{order: *m.DeliveryOrder, loc: m.DeliveryLocation})
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].order < stops[j].order })

	out := make([]domain.Coordinates, len(stops))
	for i, st := range stops {
		out[i] = st.loc
	}
	return out
}

// estimateDetourKm is the marginal cost of servicing one extra shipment:
// the pickup and delivery legs are inserted as an adjacent pair at their
// cheapest insertion point along the existing route. This is a single-
// shipment estimate, not a route re-optimisation.
func estimateDetourKm(ref domain.Coordinates, stops []domain.Coordinates, pickup, delivery domain.Coordinates) float64 {
	route := make([]domain.Coordinates, 0, len(stops)+1)
	route = append(route, ref)
	route = append(route, stops...)

	best := math.Inf(1)
	for i := range route {
		added := geo.Kilometers(route[i].Lat, route[i].Lng, pickup.Lat, pickup.Lng) +
			geo.Kilometers(pickup.Lat, pickup.Lng, delivery.Lat, delivery.Lng)
		if i+1 < len(route) {
			added += geo.Kilometers(delivery.Lat, delivery.Lng, route[i+1].Lat, route[i+1].Lng)
			added -= geo.Kilometers(route[i].Lat, route[i].Lng, route[i+1].Lat, route[i+1].Lng)
		}
		if added < best {
			best = added
		}
	}
	if best < 0 {
		best = 0
	}
	return roundKm(best)
}

// score derives the integer compatibility score: penalise the approach
// distance and the detour, reward payload that uses the remaining capacity.
func (s *MatchingService) score(distanceToPickup float64, weightKg, residualKg decimal.Decimal, detourKm *float64) int {
	score := 0

	if term := s.cfg.PickupWeight - int(distanceToPickup); term > 0 {
		score += term
	}

	if residualKg.Sign() > 0 {
		ratio := weightKg.InexactFloat64() / residualKg.InexactFloat64()
		if ratio > 1 {
			ratio = 1
		}
		score += int(float64(s.cfg.CapacityWeight) * (1 - ratio))
	}

	if detourKm != nil {
		if term := s.cfg.DetourWeight - int(*detourKm); term > 0 {
			score += term
		}
	} else {
		score += s.cfg.NoDetourBonus
	}

	if score > s.cfg.MaxScore {
		score = s.cfg.MaxScore
	}
	return score
}

func roundKm(v float64) float64 {
	return math.Round(v*1000) / 1000
}
