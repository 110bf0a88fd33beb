package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	// Malformed input.
	case errors.Is(err, domain.ErrInvalidCoordinates),
		errors.Is(err, domain.ErrInvalidRadius),
		errors.Is(err, domain.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidWeight),
		errors.Is(err, domain.ErrInvalidDistance),
		errors.Is(err, domain.ErrInvalidDeclared),
		errors.Is(err, domain.ErrNoShipments),
		errors.Is(err, domain.ErrNoLocationAvailable):
		return http.StatusBadRequest, err.Error()

	// Missing resources.
	case errors.Is(err, domain.ErrShipmentNotFound):
		return http.StatusNotFound, "shipment not found"
	case errors.Is(err, domain.ErrCourierNotFound):
		return http.StatusNotFound, "courier profile not found"
	case errors.Is(err, domain.ErrBookingNotFound):
		return http.StatusNotFound, "booking not found"

	// Authorization.
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrCourierNotEligible):
		return http.StatusForbidden, err.Error()

	// State conflicts: another courier won the claim, or the requested
	// shipments are no longer open. Callers refresh and retry.
	case errors.Is(err, domain.ErrShipmentNoLongerAvailable),
		errors.Is(err, domain.ErrShipmentNotAvailable),
		errors.Is(err, domain.ErrBookingModified),
		errors.Is(err, domain.ErrBookingNotActive):
		return http.StatusConflict, err.Error()

	// Business rule rejections over well-formed input.
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrDeclaredTooHigh),
		errors.Is(err, domain.ErrPricingNotComputed),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	}

	var limit *domain.ShipmentLimitExceededError
	if errors.As(err, &limit) {
		return http.StatusUnprocessableEntity, limit.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
