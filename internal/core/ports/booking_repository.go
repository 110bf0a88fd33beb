package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// BookingRepository defines persistence operations for bookings.
// Bookings are only ever soft-cancelled; there is no delete.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// FindActiveByCourier returns the courier's current active booking, or
	// domain.ErrBookingNotFound when none exists.
	FindActiveByCourier(ctx context.Context, courierID uuid.UUID) (*domain.Booking, error)
	// Update rewrites the booking's derived fields (member ids, weight,
	// totals) after a successful consolidation append. The write applies
	// only while the booking is still active and its stored weight equals
	// expectedWeightKg — the weight the caller validated capacity against —
	// so two concurrent appends cannot both commit over the same snapshot.
	// Returns false when the guard fails; the caller releases its claims.
	Update(ctx context.Context, b *domain.Booking, expectedWeightKg decimal.Decimal) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	ListByCourier(ctx context.Context, courierID uuid.UUID, page, limit int) ([]*domain.Booking, error)
}
