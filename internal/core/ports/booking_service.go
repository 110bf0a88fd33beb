package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// CreateBookingInput carries a consolidation request: the ordered shipment
// ids a courier wants to combine into (or append to) one booking.
type CreateBookingInput struct {
	CourierID   uuid.UUID
	ShipmentIDs []uuid.UUID
}

// BookingService owns the only mutating operation of the core: materialising
// a consolidated booking from claimed shipments, and the booking's
// subsequent status transitions.
type BookingService interface {
	// CreateConsolidatedBooking validates, claims, prices, and persists a
	// booking. The returned event is handed by the caller to the
	// earnings/notification collaborators after commit.
	CreateConsolidatedBooking(ctx context.Context, in CreateBookingInput) (*domain.Booking, *domain.BookingEvent, error)
	GetBooking(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, []*domain.Shipment, error)
	ListBookings(ctx context.Context, courierID uuid.UUID, page, limit int) ([]*domain.Booking, error)
	// Complete marks an active booking delivered-and-done.
	Complete(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, *domain.BookingEvent, error)
	// Cancel soft-cancels an active booking and releases its shipments back
	// to the open pool.
	Cancel(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, *domain.BookingEvent, error)
}
