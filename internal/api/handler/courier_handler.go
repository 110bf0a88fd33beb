package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// CourierHandler exposes the authenticated courier's own profile and
// location feed.
type CourierHandler struct {
	service ports.CourierService
}

func NewCourierHandler(service ports.CourierService) *CourierHandler {
	return &CourierHandler{service: service}
}

type courierProfileResponse struct {
	ID                  string         `json:"id"`
	VehicleType         string         `json:"vehicle_type"`
	MaxWeightCapacityKg string         `json:"max_weight_capacity_kg"`
	MaxShipments        int            `json:"max_shipments"`
	Status              string         `json:"status"`
	LastLocation        *pointResponse `json:"last_location,omitempty"`
	LastLocationAt      *time.Time     `json:"last_location_at,omitempty"`
}

type updateLocationRequest struct {
	Lat float64 `json:"lat" validate:"required,latitude"`
	Lng float64 `json:"lng" validate:"required,longitude"`
}

// Me handles GET /v1/couriers/me.
//
// @Summary      Get the authenticated courier's profile
// @Tags         couriers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  courierProfileResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/couriers/me [get]
func (h *CourierHandler) Me(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	profile, err := h.service.GetProfile(c.Request().Context(), courierID)
	if err != nil {
		return err
	}

	resp := courierProfileResponse{
		ID:                  profile.ID.String(),
		VehicleType:         string(profile.VehicleType),
		MaxWeightCapacityKg: profile.MaxWeightCapacityKg.String(),
		MaxShipments:        profile.VehicleType.MaxShipments(),
		Status:              string(profile.Status),
		LastLocationAt:      profile.LastLocationAt,
	}
	if profile.LastLocation != nil {
		resp.LastLocation = &pointResponse{Lat: profile.LastLocation.Lat, Lng: profile.LastLocation.Lng}
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateLocation handles PUT /v1/couriers/me/location.
//
// @Summary      Report the courier's current position
// @Tags         couriers
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  updateLocationRequest  true  "Current coordinates"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Router       /v1/couriers/me/location [put]
func (h *CourierHandler) UpdateLocation(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateLocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	loc := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	if err := h.service.UpdateLocation(c.Request().Context(), courierID, loc); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
