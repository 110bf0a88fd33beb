package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors: rejected before any lookup, never retried automatically.
var (
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrInvalidRadius      = errors.New("search radius must be greater than zero")
	ErrInvalidLimit       = errors.New("max results must be greater than zero")
	ErrInvalidWeight      = errors.New("weight must be greater than zero")
	ErrInvalidDistance    = errors.New("distance must not be negative")
	ErrInvalidDeclared    = errors.New("declared value must not be negative")
	ErrDeclaredTooHigh    = errors.New("declared value exceeds maximum insurable limit")
)

// Not-found / not-eligible errors: typed failures the caller may retry.
var (
	ErrShipmentNotFound     = errors.New("shipment not found")
	ErrCourierNotFound      = errors.New("courier profile not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNoLocationAvailable  = errors.New("no courier location available")
	ErrCourierNotEligible   = errors.New("courier is not approved for matching")
	ErrPricingNotComputed   = errors.New("shipment has no computed base price")
	ErrBookingNotActive     = errors.New("booking is not active")
	ErrForbidden            = errors.New("access forbidden")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrShipmentNotAvailable = errors.New("shipment is not available for booking")
	ErrNoShipments          = errors.New("booking requires at least one shipment")
)

// Concurrency conflicts: lost a race at the store boundary. Surfaced
// distinctly from not-found so the caller re-queries instead of showing a
// hard error.
var (
	ErrShipmentNoLongerAvailable = errors.New("shipment no longer available")
	// ErrBookingModified means the booking changed between validation and
	// the write, e.g. a concurrent append to the same active booking.
	ErrBookingModified = errors.New("booking was modified concurrently")
)

// Capacity error sentinel; the typed error below carries the overflow amount.
var ErrCapacityExceeded = errors.New("vehicle weight capacity exceeded")

// ShipmentNotAvailableError identifies the first shipment that failed the
// availability check during consolidation.
type ShipmentNotAvailableError struct {
	ShipmentID uuid.UUID
	Status     ShipmentStatus
}

func (e *ShipmentNotAvailableError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("shipment %s is not available for booking (not found)", e.ShipmentID)
	}
	return fmt.Sprintf("shipment %s is not available for booking (status %s)", e.ShipmentID, e.Status)
}

func (e *ShipmentNotAvailableError) Is(target error) bool {
	return target == ErrShipmentNotAvailable
}

// CapacityExceededError reports by how much a consolidation would overload the
// courier's vehicle, so the caller can drop a shipment and retry.
type CapacityExceededError struct {
	CapacityKg  decimal.Decimal
	AttemptedKg decimal.Decimal
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("vehicle weight capacity exceeded: capacity %s kg, attempted %s kg (overflow %s kg)",
		e.CapacityKg, e.AttemptedKg, e.OverflowKg())
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// OverflowKg is the amount by which the attempted load exceeds capacity.
func (e *CapacityExceededError) OverflowKg() decimal.Decimal {
	return e.AttemptedKg.Sub(e.CapacityKg)
}

// ShipmentLimitExceededError reports the vehicle-class parcel count limit.
type ShipmentLimitExceededError struct {
	Max int
}

func (e *ShipmentLimitExceededError) Error() string {
	return fmt.Sprintf("maximum of %d shipments per booking exceeded", e.Max)
}
