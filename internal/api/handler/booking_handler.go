package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shipmate/marketplace/internal/api/metrics"
	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// EventSink receives committed booking events for asynchronous publishing.
// The dispatcher in infrastructure/queue satisfies it.
type EventSink interface {
	Enqueue(event domain.BookingEvent)
}

// BookingHandler handles the consolidation and booking lifecycle endpoints.
type BookingHandler struct {
	service ports.BookingService
	events  EventSink
}

func NewBookingHandler(service ports.BookingService, events EventSink) *BookingHandler {
	return &BookingHandler{service: service, events: events}
}

type createBookingRequest struct {
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=1,dive,uuid"`
}

type bookingResponse struct {
	ID          string   `json:"id"`
	CourierID   string   `json:"courier_id"`
	ShipmentIDs []string `json:"shipment_ids"`

	CurrentWeightKg    string `json:"current_weight_kg"`
	TotalPrice         string `json:"total_price"`
	PlatformCommission string `json:"platform_commission"`
	CourierEarnings    string `json:"courier_earnings"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type bookingDetailResponse struct {
	bookingResponse
	Shipments []shipmentResponse `json:"shipments"`
}

type listBookingsResponse struct {
	Data  []bookingResponse `json:"data"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	ids := make([]string, len(b.ShipmentIDs))
	for i, id := range b.ShipmentIDs {
		ids[i] = id.String()
	}
	return bookingResponse{
		ID:                 b.ID.String(),
		CourierID:          b.CourierID.String(),
		ShipmentIDs:        ids,
		CurrentWeightKg:    b.CurrentWeightKg.String(),
		TotalPrice:         b.TotalPrice.StringFixed(2),
		PlatformCommission: b.PlatformCommission.StringFixed(2),
		CourierEarnings:    b.CourierEarnings.StringFixed(2),
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// Create handles POST /v1/bookings.
//
// @Summary      Consolidate shipments into the courier's booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBookingRequest  true  "Shipments to claim, in request order"
// @Success      201   {object}  bookingResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ids := make([]uuid.UUID, len(req.ShipmentIDs))
	for i, raw := range req.ShipmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid shipment id: "+raw)
		}
		ids[i] = id
	}

	booking, event, err := h.service.CreateConsolidatedBooking(c.Request().Context(), ports.CreateBookingInput{
		CourierID:   courierID,
		ShipmentIDs: ids,
	})
	if err != nil {
		return err
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	metrics.BookingShipments.Observe(float64(len(booking.ShipmentIDs)))
	h.publish(event)

	return c.JSON(http.StatusCreated, toBookingResponse(booking))
}

// Get handles GET /v1/bookings/:id.
//
// @Summary      Get a booking with its member shipments in route order
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  bookingDetailResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/bookings/{id} [get]
func (h *BookingHandler) Get(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, shipments, err := h.service.GetBooking(c.Request().Context(), bookingID, courierID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookingDetailResponse{
		bookingResponse: toBookingResponse(booking),
		Shipments:       toShipmentResponses(shipments),
	})
}

// List handles GET /v1/bookings.
//
// @Summary      List the authenticated courier's bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listBookingsResponse
// @Router       /v1/bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, limit := pagination(c)
	bookings, err := h.service.ListBookings(c.Request().Context(), courierID, page, limit)
	if err != nil {
		return err
	}

	data := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		data[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, listBookingsResponse{Data: data, Page: page, Limit: limit})
}

// Complete handles POST /v1/bookings/:id/complete.
//
// @Summary      Mark an active booking completed
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  bookingResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c echo.Context) error {
	return h.transition(c, h.service.Complete, "completed")
}

// Cancel handles POST /v1/bookings/:id/cancel.
//
// @Summary      Cancel an active booking and release its shipments
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  bookingResponse
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.service.Cancel, "cancelled")
}

func (h *BookingHandler) transition(
	c echo.Context,
	op func(ctx context.Context, bookingID, courierID uuid.UUID) (*domain.Booking, *domain.BookingEvent, error),
	label string,
) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, event, err := op(c.Request().Context(), bookingID, courierID)
	if err != nil {
		return err
	}

	metrics.BookingsTotal.WithLabelValues(label).Inc()
	h.publish(event)

	return c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) publish(event *domain.BookingEvent) {
	if h.events == nil || event == nil {
		return
	}
	h.events.Enqueue(*event)
}
