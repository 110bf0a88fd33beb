package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/pkg/geo"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentCreated   ShipmentStatus = "created"
	ShipmentBooked    ShipmentStatus = "booked"
	ShipmentAccepted  ShipmentStatus = "accepted"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
// booked -> created is the release path when a booking is cancelled
// before the courier accepts.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentCreated:   {ShipmentBooked, ShipmentCancelled},
	ShipmentBooked:    {ShipmentAccepted, ShipmentCreated, ShipmentCancelled},
	ShipmentAccepted:  {ShipmentInTransit, ShipmentCancelled},
	ShipmentInTransit: {ShipmentDelivered},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Validate checks the latitude/longitude ranges.
func (c Coordinates) Validate() error {
	if !geo.ValidLatitude(c.Lat) || !geo.ValidLongitude(c.Lng) {
		return ErrInvalidCoordinates
	}
	return nil
}

// Shipment is a plain value record. It references its booking and sender by id
// only; there is no live object navigation between aggregates.
type Shipment struct {
	ID               uuid.UUID
	SenderID         uuid.UUID
	PickupAddress    string
	PickupLocation   Coordinates
	DeliveryAddress  string
	DeliveryLocation Coordinates

	WeightKg          decimal.Decimal
	DeclaredValue     decimal.Decimal
	InsuranceSelected bool

	RequestedPickupDate   time.Time
	RequestedDeliveryDate time.Time

	Status    ShipmentStatus
	BookingID *uuid.UUID

	// PickupOrder and DeliveryOrder are assigned when the shipment is
	// consolidated into a booking; nil while unassigned.
	PickupOrder   *int
	DeliveryOrder *int

	// BasePrice is computed at creation time and is nil until priced.
	BasePrice    *decimal.Decimal
	InsuranceFee decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the shipment can still be claimed into a booking.
func (s *Shipment) Open() bool {
	return s.Status == ShipmentCreated && s.BookingID == nil
}
