package ports

import (
	"context"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// BookingEventEmitter forwards committed booking events to the
// earnings/notification collaborators. Implementations live at the
// infrastructure edge; the core only produces event values.
type BookingEventEmitter interface {
	Emit(ctx context.Context, event domain.BookingEvent) error
}
