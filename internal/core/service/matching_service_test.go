package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// base is central Berlin; kmNorth offsets latitude by roughly n kilometres.
var base = domain.Coordinates{Lat: 52.5200, Lng: 13.4050}

func kmNorth(origin domain.Coordinates, km float64) domain.Coordinates {
	return domain.Coordinates{Lat: origin.Lat + km/111.32, Lng: origin.Lng}
}

func newMatchingFixture() (*MatchingService, *stubShipmentRepo, *stubCourierRepo, *stubBookingRepo) {
	shipments := newStubShipmentRepo()
	couriers := newStubCourierRepo()
	bookings := newStubBookingRepo()
	svc := NewMatchingService(shipments, couriers, bookings, DefaultMatchingConfig(), zerolog.Nop())
	return svc, shipments, couriers, bookings
}

func findInput(courier *domain.CourierProfile) ports.FindMatchesInput {
	return ports.FindMatchesInput{
		CourierID:  courier.ID,
		RadiusKm:   25,
		MaxResults: 50,
		Page:       1,
	}
}

func TestFindMatchesRejectsInvalidRadius(t *testing.T) {
	svc, _, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	in := findInput(courier)
	in.RadiusKm = 0
	if _, err := svc.FindMatches(context.Background(), in); !errors.Is(err, domain.ErrInvalidRadius) {
		t.Fatalf("radius 0: got %v, want ErrInvalidRadius", err)
	}

	in = findInput(courier)
	in.RadiusKm = -3
	if _, err := svc.FindMatches(context.Background(), in); !errors.Is(err, domain.ErrInvalidRadius) {
		t.Fatalf("negative radius: got %v, want ErrInvalidRadius", err)
	}

	in = findInput(courier)
	in.MaxResults = 0
	if _, err := svc.FindMatches(context.Background(), in); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Fatalf("max results 0: got %v, want ErrInvalidLimit", err)
	}
}

func TestFindMatchesRequiresApprovedCourier(t *testing.T) {
	svc, _, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	courier.Status = domain.CourierSuspended
	couriers.add(courier)

	if _, err := svc.FindMatches(context.Background(), findInput(courier)); !errors.Is(err, domain.ErrCourierNotEligible) {
		t.Fatalf("suspended courier: got %v, want ErrCourierNotEligible", err)
	}
}

func TestFindMatchesLocationFallback(t *testing.T) {
	svc, shipments, couriers, _ := newMatchingFixture()

	// No explicit location and no stored location: fail.
	nowhere := approvedCourier(domain.VehicleVan, 100, nil)
	couriers.add(nowhere)
	if _, err := svc.FindMatches(context.Background(), findInput(nowhere)); !errors.Is(err, domain.ErrNoLocationAvailable) {
		t.Fatalf("no location: got %v, want ErrNoLocationAvailable", err)
	}

	// Stored location is used when the request omits one.
	near := kmNorth(base, 2)
	sh := openShipment(near.Lat, near.Lng, near.Lat, near.Lng+0.05, 5, 20)
	shipments.add(sh)

	stored := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(stored)
	results, err := svc.FindMatches(context.Background(), findInput(stored))
	if err != nil {
		t.Fatalf("stored location: unexpected error %v", err)
	}
	if len(results) != 1 || results[0].Shipment.ID != sh.ID {
		t.Fatalf("stored location: got %d results, want the seeded shipment", len(results))
	}
}

func TestFindMatchesRejectsOutOfRangeLocation(t *testing.T) {
	svc, _, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	in := findInput(courier)
	lat, lng := 91.0, 13.4
	in.Lat, in.Lng = &lat, &lng
	if _, err := svc.FindMatches(context.Background(), in); !errors.Is(err, domain.ErrInvalidCoordinates) {
		t.Fatalf("lat 91: got %v, want ErrInvalidCoordinates", err)
	}
}

func TestFindMatchesFiltersRadiusAndStatus(t *testing.T) {
	svc, shipments, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	inside := kmNorth(base, 5)
	outside := kmNorth(base, 30)

	ok := openShipment(inside.Lat, inside.Lng, inside.Lat, inside.Lng+0.02, 5, 20)
	far := openShipment(outside.Lat, outside.Lng, outside.Lat, outside.Lng+0.02, 5, 20)
	booked := openShipment(inside.Lat, inside.Lng, inside.Lat, inside.Lng+0.02, 5, 20)
	booked.Status = domain.ShipmentBooked

	shipments.add(ok)
	shipments.add(far)
	shipments.add(booked)

	results, err := svc.FindMatches(context.Background(), findInput(courier))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Shipment.ID != ok.ID {
		t.Fatalf("wrong candidate returned")
	}
	if results[0].Metrics.DistanceToPickupKm > 25 {
		t.Fatalf("returned candidate outside radius: %f km", results[0].Metrics.DistanceToPickupKm)
	}
}

func TestFindMatchesScoreDecreasesWithPickupDistance(t *testing.T) {
	svc, shipments, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	// Identical shipments except distance to pickup: 2 km vs 10 km.
	closePickup := kmNorth(base, 2)
	farPickup := kmNorth(base, 10)
	closeSh := openShipment(closePickup.Lat, closePickup.Lng, closePickup.Lat, closePickup.Lng+0.05, 5, 20)
	farSh := openShipment(farPickup.Lat, farPickup.Lng, farPickup.Lat, farPickup.Lng+0.05, 5, 20)
	shipments.add(closeSh)
	shipments.add(farSh)

	results, err := svc.FindMatches(context.Background(), findInput(courier))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Shipment.ID != closeSh.ID {
		t.Fatalf("closer pickup did not rank first")
	}
	if results[0].Metrics.Score <= results[1].Metrics.Score {
		t.Fatalf("score %d for 2 km not greater than %d for 10 km",
			results[0].Metrics.Score, results[1].Metrics.Score)
	}
	if results[0].Metrics.EstimatedDetourKm != nil {
		t.Fatalf("detour set without an existing booking")
	}
}

func TestFindMatchesTieBreaksByCreationTime(t *testing.T) {
	svc, shipments, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	// Same pickup point and geometry: identical score and distance; the
	// earlier-created shipment must rank first.
	p := kmNorth(base, 3)
	older := openShipment(p.Lat, p.Lng, p.Lat, p.Lng+0.04, 5, 20)
	newer := openShipment(p.Lat, p.Lng, p.Lat, p.Lng+0.04, 5, 20)
	shipments.add(newer)
	shipments.add(older)

	results, err := svc.FindMatches(context.Background(), findInput(courier))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Shipment.CreatedAt.Before(results[1].Shipment.CreatedAt) {
		t.Fatalf("older shipment did not rank first on tie")
	}
}

func TestFindMatchesTruncatesAfterSorting(t *testing.T) {
	svc, shipments, couriers, _ := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	// Seed the far (lower-scoring) shipment first so a pre-sort truncation
	// would return it instead of the best one.
	farPickup := kmNorth(base, 15)
	nearPickup := kmNorth(base, 1)
	farSh := openShipment(farPickup.Lat, farPickup.Lng, farPickup.Lat, farPickup.Lng+0.05, 5, 20)
	nearSh := openShipment(nearPickup.Lat, nearPickup.Lng, nearPickup.Lat, nearPickup.Lng+0.05, 5, 20)
	shipments.add(farSh)
	shipments.add(nearSh)

	in := findInput(courier)
	in.MaxResults = 1
	results, err := svc.FindMatches(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Shipment.ID != nearSh.ID {
		t.Fatalf("truncation dropped the best-scoring candidate")
	}
}

func TestFindMatchesConsolidationContext(t *testing.T) {
	svc, shipments, couriers, bookings := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 20, &base)
	couriers.add(courier)

	// Existing booking holding one 15 kg shipment: residual capacity 5 kg.
	anchorPickup := kmNorth(base, 1)
	anchorDelivery := kmNorth(base, 6)
	anchor := openShipment(anchorPickup.Lat, anchorPickup.Lng, anchorDelivery.Lat, anchorDelivery.Lng, 15, 30)
	booking := &domain.Booking{
		ID:        anchor.ID, // reuse for a stable id
		CourierID: courier.ID,
		Status:    domain.BookingActive,
	}
	bookings.Create(context.Background(), booking)
	shipments.add(anchor)
	shipments.TryClaim(context.Background(), anchor.ID, booking.ID, 1, 2)

	nearPickup := kmNorth(base, 2)
	fits := openShipment(nearPickup.Lat, nearPickup.Lng, nearPickup.Lat, nearPickup.Lng+0.03, 4, 12)
	tooHeavy := openShipment(nearPickup.Lat, nearPickup.Lng, nearPickup.Lat, nearPickup.Lng+0.03, 6, 12)
	shipments.add(fits)
	shipments.add(tooHeavy)

	in := findInput(courier)
	in.BookingID = &booking.ID
	results, err := svc.FindMatches(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (residual capacity pre-filter)", len(results))
	}
	if results[0].Shipment.ID != fits.ID {
		t.Fatalf("over-capacity candidate not filtered")
	}
	if results[0].Metrics.EstimatedDetourKm == nil {
		t.Fatalf("detour not computed against existing booking")
	}
	if *results[0].Metrics.EstimatedDetourKm < 0 {
		t.Fatalf("negative detour estimate: %f", *results[0].Metrics.EstimatedDetourKm)
	}
}

func TestFindMatchesForeignBookingForbidden(t *testing.T) {
	svc, _, couriers, bookings := newMatchingFixture()
	courier := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(courier)

	other := approvedCourier(domain.VehicleVan, 100, &base)
	couriers.add(other)
	foreign := &domain.Booking{ID: other.ID, CourierID: other.ID, Status: domain.BookingActive}
	bookings.Create(context.Background(), foreign)

	in := findInput(courier)
	in.BookingID = &foreign.ID
	if _, err := svc.FindMatches(context.Background(), in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign booking: got %v, want ErrForbidden", err)
	}
}
