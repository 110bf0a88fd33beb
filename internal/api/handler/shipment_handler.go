package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/api/metrics"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for sender-side shipment operations.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// Create handles POST /v1/shipments.
//
// @Summary      Create a new shipment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createShipmentRequest  true  "Shipment details"
// @Success      201   {object}  shipmentResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	_, senderID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	shipment, err := h.service.CreateShipment(c.Request().Context(), ports.CreateShipmentInput{
		SenderID:              senderID,
		PickupAddress:         req.PickupAddress,
		PickupLat:             req.PickupLocation.Lat,
		PickupLng:             req.PickupLocation.Lng,
		DeliveryAddress:       req.DeliveryAddress,
		DeliveryLat:           req.DeliveryLocation.Lat,
		DeliveryLng:           req.DeliveryLocation.Lng,
		WeightKg:              decimal.NewFromFloat(req.WeightKg),
		DeclaredValue:         decimal.NewFromFloat(req.DeclaredValue),
		InsuranceSelected:     req.InsuranceSelected,
		RequestedPickupDate:   req.RequestedPickupDate,
		RequestedDeliveryDate: req.RequestedDeliveryDate,
	})
	if err != nil {
		return err
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(strconv.FormatBool(req.InsuranceSelected)).Inc()

	return c.JSON(http.StatusCreated, toShipmentResponse(shipment))
}

// Get handles GET /v1/shipments/:id.
//
// @Summary      Get a shipment by id
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  shipmentResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	role, requesterID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shipment id")
	}

	shipment, err := h.service.GetShipment(c.Request().Context(), shipmentID, requesterID, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// ListMine handles GET /v1/shipments.
//
// @Summary      List the authenticated sender's shipments
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  listShipmentsResponse
// @Router       /v1/shipments [get]
func (h *ShipmentHandler) ListMine(c echo.Context) error {
	_, senderID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, limit := pagination(c)
	shipments, err := h.service.ListMyShipments(c.Request().Context(), senderID, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listShipmentsResponse{
		Data:  toShipmentResponses(shipments),
		Page:  page,
		Limit: limit,
	})
}

// pagination reads the page/limit query parameters with sane defaults.
func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
