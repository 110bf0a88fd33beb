package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a consolidated booking.
type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking groups one or more shipments under a single courier run.
// Shipments are referenced by id in route order; totals are derived by the
// price aggregator and never mutated independently.
type Booking struct {
	ID          uuid.UUID
	CourierID   uuid.UUID
	ShipmentIDs []uuid.UUID

	CurrentWeightKg decimal.Decimal

	TotalPrice         decimal.Decimal
	PlatformCommission decimal.Decimal
	CourierEarnings    decimal.Decimal

	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingEventType labels the domain events emitted after booking mutations.
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCompleted BookingEventType = "booking.completed"
	BookingEventCancelled BookingEventType = "booking.cancelled"
)

// BookingEvent is the value returned to the caller after a booking commit.
// The caller forwards it to the earnings/notification collaborators; the core
// holds no publish-subscribe bus of its own.
type BookingEvent struct {
	Type               BookingEventType
	BookingID          uuid.UUID
	CourierID          uuid.UUID
	ShipmentIDs        []uuid.UUID
	TotalPrice         decimal.Decimal
	PlatformCommission decimal.Decimal
	CourierEarnings    decimal.Decimal
	OccurredAt         time.Time
}
