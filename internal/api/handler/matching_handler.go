package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shipmate/marketplace/internal/api/metrics"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// MatchingDefaults are the query-parameter fallbacks and caps applied at the
// transport edge before the matching service runs.
type MatchingDefaults struct {
	RadiusKm      float64
	MaxRadiusKm   float64
	MaxResults    int
	MaxResultsCap int
}

// MatchingHandler serves the courier-facing discovery endpoint.
type MatchingHandler struct {
	service  ports.MatchingService
	defaults MatchingDefaults
}

func NewMatchingHandler(service ports.MatchingService, defaults MatchingDefaults) *MatchingHandler {
	return &MatchingHandler{service: service, defaults: defaults}
}

type matchMetricsResponse struct {
	DistanceToPickupKm float64  `json:"distance_to_pickup_km"`
	PickupToDeliveryKm float64  `json:"pickup_to_delivery_km"`
	EstimatedDetourKm  *float64 `json:"estimated_detour_km,omitempty"`
	Score              int      `json:"score"`
}

type matchResponse struct {
	Shipment shipmentResponse     `json:"shipment"`
	Metrics  matchMetricsResponse `json:"metrics"`
}

type findMatchesResponse struct {
	Data []matchResponse `json:"data"`
}

// Find handles GET /v1/matching/shipments.
//
// Optional query parameters: lat/lng (explicit reference point), radius_km,
// max_results, booking_id (consolidation mode), page.
//
// @Summary      Find bookable shipments ranked for the authenticated courier
// @Tags         matching
// @Produce      json
// @Security     BearerAuth
// @Param        lat          query     number  false  "Reference latitude"
// @Param        lng          query     number  false  "Reference longitude"
// @Param        radius_km    query     number  false  "Search radius in km"
// @Param        max_results  query     int     false  "Maximum candidates returned"
// @Param        booking_id   query     string  false  "Active booking for consolidation mode"
// @Success      200          {object}  findMatchesResponse
// @Failure      400          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Router       /v1/matching/shipments [get]
func (h *MatchingHandler) Find(c echo.Context) error {
	_, courierID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	in := ports.FindMatchesInput{
		CourierID:  courierID,
		RadiusKm:   h.defaults.RadiusKm,
		MaxResults: h.defaults.MaxResults,
	}

	if raw := c.QueryParam("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lat")
		}
		in.Lat = &lat
	}
	if raw := c.QueryParam("lng"); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lng")
		}
		in.Lng = &lng
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng must be provided together")
	}

	if raw := c.QueryParam("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid radius_km")
		}
		in.RadiusKm = radius
	}
	if in.RadiusKm > h.defaults.MaxRadiusKm {
		in.RadiusKm = h.defaults.MaxRadiusKm
	}

	if raw := c.QueryParam("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid max_results")
		}
		in.MaxResults = n
	}
	if in.MaxResults > h.defaults.MaxResultsCap {
		in.MaxResults = h.defaults.MaxResultsCap
	}

	mode := "fresh"
	if raw := c.QueryParam("booking_id"); raw != "" {
		bookingID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid booking_id")
		}
		in.BookingID = &bookingID
		mode = "consolidation"
	}

	in.Page, _ = strconv.Atoi(c.QueryParam("page"))
	if in.Page < 1 {
		in.Page = 1
	}

	started := time.Now()
	results, err := h.service.FindMatches(c.Request().Context(), in)
	if err != nil {
		return err
	}

	metrics.MatchRequestsTotal.WithLabelValues(mode).Inc()
	metrics.MatchDuration.Observe(time.Since(started).Seconds())
	metrics.MatchCandidatesReturned.Observe(float64(len(results)))

	data := make([]matchResponse, len(results))
	for i, r := range results {
		data[i] = matchResponse{
			Shipment: toShipmentResponse(r.Shipment),
			Metrics: matchMetricsResponse{
				DistanceToPickupKm: r.Metrics.DistanceToPickupKm,
				PickupToDeliveryKm: r.Metrics.PickupToDeliveryKm,
				EstimatedDetourKm:  r.Metrics.EstimatedDetourKm,
				Score:              r.Metrics.Score,
			},
		}
	}
	return c.JSON(http.StatusOK, findMatchesResponse{Data: data})
}
