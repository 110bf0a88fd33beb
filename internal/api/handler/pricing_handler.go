package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/ports"
)

// PricingHandler exposes the stateless price estimation endpoints.
type PricingHandler struct {
	service ports.PricingService
}

func NewPricingHandler(service ports.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

type estimateRequest struct {
	Pickup   pointRequest `json:"pickup"   validate:"required"`
	Delivery pointRequest `json:"delivery" validate:"required"`
	WeightKg float64      `json:"weight_kg" validate:"required,gt=0"`
}

type estimateResponse struct {
	DistanceKm         string `json:"distance_km"`
	EstimatedBasePrice string `json:"estimated_base_price"`
}

// Estimate handles POST /v1/pricing/estimate.
//
// @Summary      Estimate the base price of a route and weight
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        body  body      estimateRequest  true  "Route and weight"
// @Success      200   {object}  estimateResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/pricing/estimate [post]
func (h *PricingHandler) Estimate(c echo.Context) error {
	var req estimateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Estimate(ports.PriceEstimateInput{
		PickupLat:   req.Pickup.Lat,
		PickupLng:   req.Pickup.Lng,
		DeliveryLat: req.Delivery.Lat,
		DeliveryLng: req.Delivery.Lng,
		WeightKg:    decimal.NewFromFloat(req.WeightKg),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, estimateResponse{
		DistanceKm:         result.DistanceKm.String(),
		EstimatedBasePrice: result.EstimatedBasePrice.StringFixed(2),
	})
}

type previewRequest struct {
	estimateRequest
	DeclaredValue     float64 `json:"declared_value" validate:"gte=0"`
	InsuranceSelected bool    `json:"insurance_selected"`
}

type previewResponse struct {
	DistanceKm   string `json:"distance_km"`
	BasePrice    string `json:"base_price"`
	InsuranceFee string `json:"insurance_fee"`
	RateApplied  string `json:"rate_applied"`
	TotalPrice   string `json:"total_price"`
}

// Preview handles POST /v1/pricing/preview.
//
// @Summary      Preview the full price of a shipment including insurance
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        body  body      previewRequest  true  "Route, weight and insurance selection"
// @Success      200   {object}  previewResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/pricing/preview [post]
func (h *PricingHandler) Preview(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	quote, err := h.service.Quote(ports.PriceQuoteInput{
		PriceEstimateInput: ports.PriceEstimateInput{
			PickupLat:   req.Pickup.Lat,
			PickupLng:   req.Pickup.Lng,
			DeliveryLat: req.Delivery.Lat,
			DeliveryLng: req.Delivery.Lng,
			WeightKg:    decimal.NewFromFloat(req.WeightKg),
		},
		InsuranceSelected: req.InsuranceSelected,
		DeclaredValue:     decimal.NewFromFloat(req.DeclaredValue),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, previewResponse{
		DistanceKm:   quote.DistanceKm.String(),
		BasePrice:    quote.BasePrice.StringFixed(2),
		InsuranceFee: quote.InsuranceFee.StringFixed(2),
		RateApplied:  quote.RateApplied.String(),
		TotalPrice:   quote.TotalPrice.StringFixed(2),
	})
}
