package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
	"github.com/shipmate/marketplace/pkg/geo"
)

// ShipmentService handles sender-side shipment intake. Pricing runs during
// creation, so every shipment enters the matching pool with its base price
// already computed.
type ShipmentService struct {
	repo    ports.ShipmentRepository
	pricing ports.PricingService
	logger  zerolog.Logger
}

func NewShipmentService(repo ports.ShipmentRepository, pricing ports.PricingService, logger zerolog.Logger) *ShipmentService {
	return &ShipmentService{repo: repo, pricing: pricing, logger: logger}
}

// CreateShipment validates, prices, and persists a new shipment in the
// created state.
func (s *ShipmentService) CreateShipment(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
	pickup := domain.Coordinates{Lat: in.PickupLat, Lng: in.PickupLng}
	delivery := domain.Coordinates{Lat: in.DeliveryLat, Lng: in.DeliveryLng}
	if err := pickup.Validate(); err != nil {
		return nil, err
	}
	if err := delivery.Validate(); err != nil {
		return nil, err
	}
	if in.WeightKg.Sign() <= 0 {
		return nil, domain.ErrInvalidWeight
	}
	if in.DeclaredValue.Sign() < 0 {
		return nil, domain.ErrInvalidDeclared
	}

	distanceKm := geo.DistanceKm(in.PickupLat, in.PickupLng, in.DeliveryLat, in.DeliveryLng)
	basePrice, err := s.pricing.EstimateBasePrice(distanceKm, in.WeightKg)
	if err != nil {
		return nil, err
	}
	insuranceFee, err := s.pricing.EstimateInsuranceFee(in.DeclaredValue, in.InsuranceSelected)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	shipment := &domain.Shipment{
		ID:                    uuid.New(),
		SenderID:              in.SenderID,
		PickupAddress:         in.PickupAddress,
		PickupLocation:        pickup,
		DeliveryAddress:       in.DeliveryAddress,
		DeliveryLocation:      delivery,
		WeightKg:              in.WeightKg,
		DeclaredValue:         in.DeclaredValue,
		InsuranceSelected:     in.InsuranceSelected,
		RequestedPickupDate:   in.RequestedPickupDate,
		RequestedDeliveryDate: in.RequestedDeliveryDate,
		Status:                domain.ShipmentCreated,
		BasePrice:             &basePrice,
		InsuranceFee:          insuranceFee,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Msg("failed to create shipment")
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	s.logger.Info().
		Str("shipment_id", shipment.ID.String()).
		Str("sender_id", in.SenderID.String()).
		Str("base_price", basePrice.String()).
		Msg("shipment created")

	return shipment, nil
}

// GetShipment returns a shipment; senders only see their own.
func (s *ShipmentService) GetShipment(ctx context.Context, shipmentID, requesterID uuid.UUID, role string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleSender && shipment.SenderID != requesterID {
		return nil, domain.ErrForbidden
	}
	return shipment, nil
}

func (s *ShipmentService) ListMyShipments(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListBySender(ctx, senderID, page, limit)
}
