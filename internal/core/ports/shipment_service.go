package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// CreateShipmentInput carries all data needed to create a new shipment.
// Pricing happens during creation so that downstream aggregation never has
// to derive a base price itself.
type CreateShipmentInput struct {
	SenderID          uuid.UUID
	PickupAddress     string
	PickupLat         float64
	PickupLng         float64
	DeliveryAddress   string
	DeliveryLat       float64
	DeliveryLng       float64
	WeightKg          decimal.Decimal
	DeclaredValue     decimal.Decimal
	InsuranceSelected bool

	RequestedPickupDate   time.Time
	RequestedDeliveryDate time.Time
}

// ShipmentService handles sender-side shipment intake and reads.
type ShipmentService interface {
	CreateShipment(ctx context.Context, in CreateShipmentInput) (*domain.Shipment, error)
	// GetShipment returns the shipment; senders only see their own.
	GetShipment(ctx context.Context, shipmentID, requesterID uuid.UUID, role string) (*domain.Shipment, error)
	ListMyShipments(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error)
}
