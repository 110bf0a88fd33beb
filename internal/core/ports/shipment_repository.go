package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// ShipmentRepository defines persistence operations for shipments.
//
// TryClaim and Release are the only mutating calls the consolidation path
// uses; both are atomic conditional updates at the store boundary so that two
// couriers racing for the same shipment cannot both win.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	// FindByIDs returns the shipments that exist among ids, in no particular
	// order. Missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error)
	// ListOpen returns a page of shipments with status created and no booking
	// reference. Page is 1-based.
	ListOpen(ctx context.Context, page, limit int) ([]*domain.Shipment, error)
	// FindByBookingID returns a booking's member shipments ordered by pickup order.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*domain.Shipment, error)
	ListBySender(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error)

	// TryClaim transitions the shipment from created to booked and attaches it
	// to bookingID with the given route orders, guarded by an equality check on
	// the current status. Returns false when the shipment was already claimed
	// or otherwise left the created state.
	TryClaim(ctx context.Context, shipmentID, bookingID uuid.UUID, pickupOrder, deliveryOrder int) (bool, error)
	// Release reverts a claimed shipment back to created, detaching it from
	// bookingID. Used to roll back a partially claimed consolidation and to
	// free shipments when a booking is cancelled before acceptance.
	Release(ctx context.Context, shipmentID, bookingID uuid.UUID) error
	// UpdateStatus applies a plain status transition (accepted, in_transit,
	// delivered) outside the claim path.
	UpdateStatus(ctx context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) error
}
