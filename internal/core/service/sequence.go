package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/pkg/geo"
)

// RouteSlot assigns one shipment its pickup and delivery positions within a
// booking's combined stop sequence.
type RouteSlot struct {
	ShipmentID    uuid.UUID
	PickupOrder   int
	DeliveryOrder int
}

// RouteSequencer decides the stop ordering of a consolidated booking.
// It is pluggable: validation does not depend on which strategy is active,
// only on the slots forming a gapless sequence with delivery after pickup.
type RouteSequencer interface {
	Sequence(start domain.Coordinates, existing, incoming []*domain.Shipment) []RouteSlot
}

// NearestPickupSequencer is the default strategy: incoming shipments are
// visited in ascending distance from the courier's start point, each pickup
// immediately followed by its delivery. Existing slots are never reshuffled;
// new slots continue the sequence after the current maximum.
type NearestPickupSequencer struct{}

func (NearestPickupSequencer) Sequence(start domain.Coordinates, existing, incoming []*domain.Shipment) []RouteSlot {
	ordered := make([]*domain.Shipment, len(incoming))
	copy(ordered, incoming)
	sort.SliceStable(ordered, func(i, j int) bool {
		di := geo.Kilometers(start.Lat, start.Lng, ordered[i].PickupLocation.Lat, ordered[i].PickupLocation.Lng)
		dj := geo.Kilometers(start.Lat, start.Lng, ordered[j].PickupLocation.Lat, ordered[j].PickupLocation.Lng)
		return di < dj
	})

	next := maxAssignedOrder(existing) + 1

	slots := make([]RouteSlot, 0, len(ordered))
	for _, s := range ordered {
		slots = append(slots, RouteSlot{
			ShipmentID:    s.ID,
			PickupOrder:   next,
			DeliveryOrder: next + 1,
		})
		next += 2
	}
	return slots
}

func maxAssignedOrder(shipments []*domain.Shipment) int {
	max := 0
	for _, s := range shipments {
		if s.PickupOrder != nil && *s.PickupOrder > max {
			max = *s.PickupOrder
		}
		if s.DeliveryOrder != nil && *s.DeliveryOrder > max {
			max = *s.DeliveryOrder
		}
	}
	return max
}
