package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleType is the courier's capability class.
type VehicleType string

const (
	VehicleBicycle    VehicleType = "bicycle"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleCar        VehicleType = "car"
	VehicleVan        VehicleType = "van"
	VehicleTruck      VehicleType = "truck"
)

// MaxShipments returns how many parcels a vehicle class may carry in one booking.
func (v VehicleType) MaxShipments() int {
	switch v {
	case VehicleBicycle:
		return 1
	case VehicleMotorcycle:
		return 2
	case VehicleCar:
		return 3
	case VehicleVan:
		return 6
	case VehicleTruck:
		return 10
	default:
		return 1
	}
}

// CourierStatus is the approval state of a courier profile.
type CourierStatus string

const (
	CourierPending   CourierStatus = "pending"
	CourierApproved  CourierStatus = "approved"
	CourierSuspended CourierStatus = "suspended"
)

// CourierProfile describes an independent courier. Only approved couriers
// participate in matching.
type CourierProfile struct {
	ID                  uuid.UUID
	VehicleType         VehicleType
	MaxWeightCapacityKg decimal.Decimal
	LastLocation        *Coordinates
	LastLocationAt      *time.Time
	Status              CourierStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Eligible reports whether the courier may match and book shipments.
func (p *CourierProfile) Eligible() bool {
	return p.Status == CourierApproved
}
