package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Shipment
	// claimDenied forces TryClaim to lose for specific shipments, simulating
	// a concurrent winner at the store boundary.
	claimDenied map[uuid.UUID]bool
	// findByBookingHook runs after FindByBookingID takes its snapshot,
	// letting tests gate goroutines on the same member-weight read.
	findByBookingHook func()
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{
		byID:        make(map[uuid.UUID]*domain.Shipment),
		claimDenied: make(map[uuid.UUID]bool),
	}
}

func (r *stubShipmentRepo) add(s *domain.Shipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.byID[s.ID] = &clone
}

func (r *stubShipmentRepo) get(id uuid.UUID) *domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		clone := *s
		return &clone
	}
	return nil
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.add(s)
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	if s := r.get(id); s != nil {
		return s, nil
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Shipment, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubShipmentRepo) ListOpen(_ context.Context, page, limit int) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var open []*domain.Shipment
	for _, s := range r.byID {
		if s.Status == domain.ShipmentCreated && s.BookingID == nil {
			clone := *s
			open = append(open, &clone)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })

	skip := (page - 1) * limit
	if skip >= len(open) {
		return nil, nil
	}
	end := skip + limit
	if end > len(open) {
		end = len(open)
	}
	return open[skip:end], nil
}

func (r *stubShipmentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*domain.Shipment, error) {
	r.mu.Lock()
	var members []*domain.Shipment
	for _, s := range r.byID {
		if s.BookingID != nil && *s.BookingID == bookingID {
			clone := *s
			members = append(members, &clone)
		}
	}
	r.mu.Unlock()

	if r.findByBookingHook != nil {
		r.findByBookingHook()
	}
	sort.Slice(members, func(i, j int) bool {
		pi, pj := 0, 0
		if members[i].PickupOrder != nil {
			pi = *members[i].PickupOrder
		}
		if members[j].PickupOrder != nil {
			pj = *members[j].PickupOrder
		}
		return pi < pj
	})
	return members, nil
}

func (r *stubShipmentRepo) ListBySender(_ context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shipment
	for _, s := range r.byID {
		if s.SenderID == senderID {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// TryClaim mirrors the Mongo FindOneAndUpdate guard: the transition only
// succeeds while the shipment is still open.
func (r *stubShipmentRepo) TryClaim(_ context.Context, shipmentID, bookingID uuid.UUID, pickupOrder, deliveryOrder int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[shipmentID]
	if !ok {
		return false, nil
	}
	if r.claimDenied[shipmentID] {
		return false, nil
	}
	if s.Status != domain.ShipmentCreated || s.BookingID != nil {
		return false, nil
	}

	s.Status = domain.ShipmentBooked
	bid := bookingID
	s.BookingID = &bid
	po, do := pickupOrder, deliveryOrder
	s.PickupOrder = &po
	s.DeliveryOrder = &do
	return true, nil
}

func (r *stubShipmentRepo) Release(_ context.Context, shipmentID, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[shipmentID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	if s.BookingID == nil || *s.BookingID != bookingID {
		return nil
	}
	s.Status = domain.ShipmentCreated
	s.BookingID = nil
	s.PickupOrder = nil
	s.DeliveryOrder = nil
	return nil
}

func (r *stubShipmentRepo) UpdateStatus(_ context.Context, shipmentID uuid.UUID, status domain.ShipmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[shipmentID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	s.Status = status
	return nil
}

type stubCourierRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.CourierProfile
}

func newStubCourierRepo() *stubCourierRepo {
	return &stubCourierRepo{byID: make(map[uuid.UUID]*domain.CourierProfile)}
}

func (r *stubCourierRepo) add(p *domain.CourierProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.byID[p.ID] = &clone
}

func (r *stubCourierRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.CourierProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCourierNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubCourierRepo) UpdateLocation(_ context.Context, id uuid.UUID, loc domain.Coordinates, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrCourierNotFound
	}
	l := loc
	t := at
	p.LastLocation = &l
	p.LastLocationAt = &t
	return nil
}

type stubBookingRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Booking
	// findActiveHook runs after FindActiveByCourier takes its snapshot,
	// letting tests hold concurrent consolidations at the stale-read point.
	findActiveHook func()
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{byID: make(map[uuid.UUID]*domain.Booking)}
}

func (r *stubBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	r.byID[b.ID] = &clone
	return nil
}

func (r *stubBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *stubBookingRepo) FindActiveByCourier(_ context.Context, courierID uuid.UUID) (*domain.Booking, error) {
	r.mu.Lock()
	var found *domain.Booking
	for _, b := range r.byID {
		if b.CourierID == courierID && b.Status == domain.BookingActive {
			clone := *b
			found = &clone
			break
		}
	}
	r.mu.Unlock()

	if r.findActiveHook != nil {
		r.findActiveHook()
	}
	if found == nil {
		return nil, domain.ErrBookingNotFound
	}
	return found, nil
}

// Update mirrors the store's guarded write: it only applies while the
// booking is still active and its stored weight equals the snapshot the
// caller validated against.
func (r *stubBookingRepo) Update(_ context.Context, b *domain.Booking, expectedWeightKg decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[b.ID]
	if !ok || cur.Status != domain.BookingActive || !cur.CurrentWeightKg.Equal(expectedWeightKg) {
		return false, nil
	}
	clone := *b
	r.byID[b.ID] = &clone
	return true, nil
}

func (r *stubBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (r *stubBookingRepo) ListByCourier(_ context.Context, courierID uuid.UUID, page, limit int) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Booking
	for _, b := range r.byID {
		if b.CourierID == courierID {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Fixture helpers
// ---------------------------------------------------------------------------

var fixtureClock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openShipment(pickupLat, pickupLng, deliveryLat, deliveryLng float64, weightKg, basePrice float64) *domain.Shipment {
	fixtureClock = fixtureClock.Add(time.Second)
	price := decimal.NewFromFloat(basePrice)
	return &domain.Shipment{
		ID:               uuid.New(),
		SenderID:         uuid.New(),
		PickupLocation:   domain.Coordinates{Lat: pickupLat, Lng: pickupLng},
		DeliveryLocation: domain.Coordinates{Lat: deliveryLat, Lng: deliveryLng},
		WeightKg:         decimal.NewFromFloat(weightKg),
		DeclaredValue:    decimal.NewFromInt(100),
		Status:           domain.ShipmentCreated,
		BasePrice:        &price,
		InsuranceFee:     decimal.Zero,
		CreatedAt:        fixtureClock,
		UpdatedAt:        fixtureClock,
	}
}

func approvedCourier(vehicle domain.VehicleType, capacityKg float64, loc *domain.Coordinates) *domain.CourierProfile {
	now := time.Now().UTC()
	p := &domain.CourierProfile{
		ID:                  uuid.New(),
		VehicleType:         vehicle,
		MaxWeightCapacityKg: decimal.NewFromFloat(capacityKg),
		Status:              domain.CourierApproved,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if loc != nil {
		l := *loc
		p.LastLocation = &l
		p.LastLocationAt = &now
	}
	return p
}
