package service

import (
	"testing"

	"github.com/shipmate/marketplace/internal/core/domain"
)

func TestNearestPickupSequencerOrdersByDistance(t *testing.T) {
	far := openShipment(base.Lat+0.2, base.Lng, base.Lat+0.3, base.Lng, 1, 20)
	near := openShipment(base.Lat+0.01, base.Lng, base.Lat+0.1, base.Lng, 1, 20)
	mid := openShipment(base.Lat+0.1, base.Lng, base.Lat+0.2, base.Lng, 1, 20)

	slots := NearestPickupSequencer{}.Sequence(base, nil, []*domain.Shipment{far, near, mid})

	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	wantOrder := []*domain.Shipment{near, mid, far}
	for i, want := range wantOrder {
		if slots[i].ShipmentID != want.ID {
			t.Errorf("slot %d is shipment %s, want %s", i, slots[i].ShipmentID, want.ID)
		}
	}

	// Each pickup is immediately followed by its delivery and the combined
	// orders run 1..2N without gaps.
	next := 1
	for _, slot := range slots {
		if slot.PickupOrder != next || slot.DeliveryOrder != next+1 {
			t.Errorf("slot %s orders %d/%d, want %d/%d",
				slot.ShipmentID, slot.PickupOrder, slot.DeliveryOrder, next, next+1)
		}
		next += 2
	}
}

func TestNearestPickupSequencerContinuesAfterExisting(t *testing.T) {
	existing := openShipment(base.Lat, base.Lng, base.Lat+0.05, base.Lng, 1, 20)
	po, do := 1, 2
	existing.PickupOrder = &po
	existing.DeliveryOrder = &do

	incoming := openShipment(base.Lat+0.02, base.Lng, base.Lat+0.07, base.Lng, 1, 20)

	slots := NearestPickupSequencer{}.Sequence(base, []*domain.Shipment{existing}, []*domain.Shipment{incoming})

	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	if slots[0].PickupOrder != 3 || slots[0].DeliveryOrder != 4 {
		t.Errorf("new slot orders %d/%d, want 3/4", slots[0].PickupOrder, slots[0].DeliveryOrder)
	}
}

func TestNearestPickupSequencerEmptyIncoming(t *testing.T) {
	slots := NearestPickupSequencer{}.Sequence(base, nil, nil)
	if len(slots) != 0 {
		t.Errorf("got %d slots for empty input, want 0", len(slots))
	}
}
