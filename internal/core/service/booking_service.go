package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// BookingConfig holds the revenue-split parameter.
type BookingConfig struct {
	// CommissionRate is the platform's share of the booking total.
	CommissionRate decimal.Decimal
}

// DefaultBookingConfig returns the launch commission rate.
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{CommissionRate: decimal.NewFromFloat(0.15)}
}

// BookingService implements ports.BookingService: consolidation validation,
// atomic claiming, price aggregation, and the booking lifecycle.
type BookingService struct {
	bookings  ports.BookingRepository
	shipments ports.ShipmentRepository
	couriers  ports.CourierRepository
	sequencer RouteSequencer
	cfg       BookingConfig
	logger    zerolog.Logger
}

func NewBookingService(
	bookings ports.BookingRepository,
	shipments ports.ShipmentRepository,
	couriers ports.CourierRepository,
	sequencer RouteSequencer,
	cfg BookingConfig,
	logger zerolog.Logger,
) *BookingService {
	if sequencer == nil {
		sequencer = NearestPickupSequencer{}
	}
	return &BookingService{
		bookings:  bookings,
		shipments: shipments,
		couriers:  couriers,
		sequencer: sequencer,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateConsolidatedBooking combines the requested shipments into the
// courier's booking. Validation runs over a read snapshot; every write is an
// atomic conditional transition at the store — each shipment claim, and the
// booking insert/update itself — and all already-won claims are released
// when any later one loses.
func (s *BookingService) CreateConsolidatedBooking(ctx context.Context, in ports.CreateBookingInput) (*domain.Booking, *domain.BookingEvent, error) {
	ids := dedupeIDs(in.ShipmentIDs)
	if len(ids) == 0 {
		return nil, nil, domain.ErrNoShipments
	}

	profile, err := s.couriers.FindByID(ctx, in.CourierID)
	if err != nil {
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}

	booking, members, err := s.resolveActiveBooking(ctx, in.CourierID)
	if err != nil {
		return nil, nil, err
	}

	incoming, err := s.loadAvailable(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkCapacity(profile, members, incoming); err != nil {
		return nil, nil, err
	}

	if !profile.Eligible() {
		return nil, nil, domain.ErrCourierNotEligible
	}

	if max := profile.VehicleType.MaxShipments(); len(members)+len(incoming) > max {
		return nil, nil, &domain.ShipmentLimitExceededError{Max: max}
	}

	// Totals are derived before any claim so a pricing gap cannot leave
	// half-claimed shipments behind.
	weight, total, commission, earnings, err := s.aggregate(append(append([]*domain.Shipment{}, members...), incoming...))
	if err != nil {
		return nil, nil, err
	}

	isNew := booking == nil
	priorWeight := decimal.Zero
	if !isNew {
		priorWeight = booking.CurrentWeightKg
	}
	if isNew {
		now := time.Now().UTC()
		booking = &domain.Booking{
			ID:        uuid.New(),
			CourierID: in.CourierID,
			Status:    domain.BookingActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	slots := s.sequencer.Sequence(s.sequenceStart(profile, incoming), members, incoming)

	claimed, err := s.claimAll(ctx, booking.ID, slots)
	if err != nil {
		s.releaseClaims(ctx, booking.ID, claimed)
		return nil, nil, err
	}

	booking.ShipmentIDs = appendShipmentIDs(booking.ShipmentIDs, slots)
	booking.CurrentWeightKg = weight
	booking.TotalPrice = total
	booking.PlatformCommission = commission
	booking.CourierEarnings = earnings
	booking.UpdatedAt = time.Now().UTC()

	// The booking write is guarded the same way the per-shipment claims are:
	// a fresh booking relies on the one-active-per-courier unique index, an
	// append on the stored weight still matching the validated snapshot. A
	// lost guard means a concurrent consolidation committed first, so the
	// claims are rolled back and the caller re-reads and retries.
	if isNew {
		if err := s.bookings.Create(ctx, booking); err != nil {
			s.releaseClaims(ctx, booking.ID, claimed)
			return nil, nil, fmt.Errorf("create booking: persist: %w", err)
		}
	} else {
		won, err := s.bookings.Update(ctx, booking, priorWeight)
		if err != nil {
			s.releaseClaims(ctx, booking.ID, claimed)
			return nil, nil, fmt.Errorf("create booking: persist: %w", err)
		}
		if !won {
			s.releaseClaims(ctx, booking.ID, claimed)
			return nil, nil, fmt.Errorf("booking %s: %w", booking.ID, domain.ErrBookingModified)
		}
	}

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("courier_id", in.CourierID.String()).
		Int("shipments", len(booking.ShipmentIDs)).
		Str("total_price", total.String()).
		Msg("booking consolidated")

	event := s.newEvent(domain.BookingEventCreated, booking)
	return booking, &event, nil
}

// GetBooking returns a booking with its member shipments; couriers only see
// their own bookings.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, []*domain.Shipment, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.CourierID != courierID {
		return nil, nil, domain.ErrForbidden
	}
	members, err := s.shipments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("get booking: load shipments: %w", err)
	}
	return booking, members, nil
}

func (s *BookingService) ListBookings(ctx context.Context, courierID uuid.UUID, page, limit int) ([]*domain.Booking, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.bookings.ListByCourier(ctx, courierID, page, limit)
}

// Complete transitions an active booking to completed.
func (s *BookingService) Complete(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, *domain.BookingEvent, error) {
	booking, err := s.ownedActiveBooking(ctx, bookingID, courierID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingCompleted); err != nil {
		return nil, nil, fmt.Errorf("complete booking: %w", err)
	}
	booking.Status = domain.BookingCompleted

	event := s.newEvent(domain.BookingEventCompleted, booking)
	return booking, &event, nil
}

// Cancel soft-cancels an active booking before acceptance and releases its
// member shipments back to the open pool. Bookings with shipments already
// past the booked state cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, *domain.BookingEvent, error) {
	booking, err := s.ownedActiveBooking(ctx, bookingID, courierID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.shipments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("cancel booking: load shipments: %w", err)
	}
	for _, m := range members {
		if m.Status != domain.ShipmentBooked {
			return nil, nil, fmt.Errorf("cancel booking: shipment %s: %w", m.ID, domain.ErrInvalidTransition)
		}
	}

	for _, m := range members {
		if err := s.shipments.Release(ctx, m.ID, bookingID); err != nil {
			return nil, nil, fmt.Errorf("cancel booking: release shipment %s: %w", m.ID, err)
		}
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingCancelled); err != nil {
		return nil, nil, fmt.Errorf("cancel booking: %w", err)
	}
	booking.Status = domain.BookingCancelled

	s.logger.Info().
		Str("booking_id", bookingID.String()).
		Int("released", len(members)).
		Msg("booking cancelled")

	event := s.newEvent(domain.BookingEventCancelled, booking)
	return booking, &event, nil
}

// resolveActiveBooking loads the courier's current active booking and its
// members, or (nil, nil) when the consolidation starts a fresh booking.
func (s *BookingService) resolveActiveBooking(ctx context.Context, courierID uuid.UUID) (*domain.Booking, []*domain.Shipment, error) {
	booking, err := s.bookings.FindActiveByCourier(ctx, courierID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}
	members, err := s.shipments.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("create booking: load booking shipments: %w", err)
	}
	return booking, members, nil
}

// loadAvailable fetches the requested shipments, failing on the first one
// missing or not in the created state.
func (s *BookingService) loadAvailable(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	found, err := s.shipments.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("create booking: load shipments: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.Shipment, len(found))
	for _, sh := range found {
		byID[sh.ID] = sh
	}

	ordered := make([]*domain.Shipment, 0, len(ids))
	for _, id := range ids {
		sh, ok := byID[id]
		if !ok {
			return nil, &domain.ShipmentNotAvailableError{ShipmentID: id}
		}
		if !sh.Open() {
			return nil, &domain.ShipmentNotAvailableError{ShipmentID: id, Status: sh.Status}
		}
		ordered = append(ordered, sh)
	}
	return ordered, nil
}

// checkCapacity verifies existing plus incoming weight against the vehicle
// limit. Exactly at capacity is accepted; any overflow is reported.
func (s *BookingService) checkCapacity(profile *domain.CourierProfile, members, incoming []*domain.Shipment) error {
	total := decimal.Zero
	for _, m := range members {
		total = total.Add(m.WeightKg)
	}
	for _, sh := range incoming {
		total = total.Add(sh.WeightKg)
	}
	if total.GreaterThan(profile.MaxWeightCapacityKg) {
		return &domain.CapacityExceededError{
			CapacityKg:  profile.MaxWeightCapacityKg,
			AttemptedKg: total,
		}
	}
	return nil
}

// aggregate sums the already-computed per-shipment prices into the booking
// totals and splits platform commission from courier earnings. Prices are
// never derived here; a missing base price is a hard failure.
func (s *BookingService) aggregate(all []*domain.Shipment) (weight, total, commission, earnings decimal.Decimal, err error) {
	weight, total = decimal.Zero, decimal.Zero
	for _, sh := range all {
		if sh.BasePrice == nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero,
				fmt.Errorf("shipment %s: %w", sh.ID, domain.ErrPricingNotComputed)
		}
		weight = weight.Add(sh.WeightKg)
		total = total.Add(*sh.BasePrice).Add(sh.InsuranceFee)
	}
	total = total.Round(2)
	commission = total.Mul(s.cfg.CommissionRate).Round(2)
	earnings = total.Sub(commission)
	return weight, total, commission, earnings, nil
}

// claimAll attempts the atomic claim for every slot, returning the slots won
// so far when one is lost.
func (s *BookingService) claimAll(ctx context.Context, bookingID uuid.UUID, slots []RouteSlot) ([]RouteSlot, error) {
	claimed := make([]RouteSlot, 0, len(slots))
	for _, slot := range slots {
		ok, err := s.shipments.TryClaim(ctx, slot.ShipmentID, bookingID, slot.PickupOrder, slot.DeliveryOrder)
		if err != nil {
			return claimed, fmt.Errorf("create booking: claim shipment %s: %w", slot.ShipmentID, err)
		}
		if !ok {
			return claimed, fmt.Errorf("shipment %s: %w", slot.ShipmentID, domain.ErrShipmentNoLongerAvailable)
		}
		claimed = append(claimed, slot)
	}
	return claimed, nil
}

// releaseClaims compensates a failed consolidation so rejection leaves no
// partial state behind.
func (s *BookingService) releaseClaims(ctx context.Context, bookingID uuid.UUID, claimed []RouteSlot) {
	for _, slot := range claimed {
		if err := s.shipments.Release(ctx, slot.ShipmentID, bookingID); err != nil {
			s.logger.Error().Err(err).
				Str("shipment_id", slot.ShipmentID.String()).
				Str("booking_id", bookingID.String()).
				Msg("failed to release claimed shipment")
		}
	}
}

func (s *BookingService) ownedActiveBooking(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CourierID != courierID {
		return nil, domain.ErrForbidden
	}
	if booking.Status != domain.BookingActive {
		return nil, domain.ErrBookingNotActive
	}
	return booking, nil
}

func (s *BookingService) sequenceStart(profile *domain.CourierProfile, incoming []*domain.Shipment) domain.Coordinates {
	if profile.LastLocation != nil {
		return *profile.LastLocation
	}
	return incoming[0].PickupLocation
}

func (s *BookingService) newEvent(t domain.BookingEventType, b *domain.Booking) domain.BookingEvent {
	ids := make([]uuid.UUID, len(b.ShipmentIDs))
	copy(ids, b.ShipmentIDs)
	return domain.BookingEvent{
		Type:               t,
		BookingID:          b.ID,
		CourierID:          b.CourierID,
		ShipmentIDs:        ids,
		TotalPrice:         b.TotalPrice,
		PlatformCommission: b.PlatformCommission,
		CourierEarnings:    b.CourierEarnings,
		OccurredAt:         time.Now().UTC(),
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func appendShipmentIDs(existing []uuid.UUID, slots []RouteSlot) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(existing)+len(slots))
	out = append(out, existing...)
	for _, slot := range slots {
		out = append(out, slot.ShipmentID)
	}
	return out
}
