package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shipmate/marketplace/internal/api/handler"
	"github.com/shipmate/marketplace/internal/api/middleware"
	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

// Dependencies carries everything the router needs. Services are ports so
// tests can swap implementations.
type Dependencies struct {
	Mongo  *mongo.Database
	Redis  *redis.Client
	Broker handler.BrokerProbe
	Events handler.EventSink

	Matching  ports.MatchingService
	Pricing   ports.PricingService
	Bookings  ports.BookingService
	Shipments ports.ShipmentService
	Couriers  ports.CourierService

	MatchingDefaults handler.MatchingDefaults
	JWTSecret        string
	Logger           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Handlers ---
	shipmentHandler := handler.NewShipmentHandler(deps.Shipments)
	matchingHandler := handler.NewMatchingHandler(deps.Matching, deps.MatchingDefaults)
	pricingHandler := handler.NewPricingHandler(deps.Pricing)
	bookingHandler := handler.NewBookingHandler(deps.Bookings, deps.Events)
	courierHandler := handler.NewCourierHandler(deps.Couriers)

	auth := middleware.Auth(deps.JWTSecret)
	senderOnly := middleware.RBAC(domain.RoleSender, domain.RoleAdmin)
	courierOnly := middleware.RBAC(domain.RoleCourier, domain.RoleAdmin)
	anyRole := middleware.RBAC(domain.RoleSender, domain.RoleCourier, domain.RoleAdmin)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis, deps.Broker)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Pricing estimate (stateless, public) ---
	e.POST("/v1/pricing/estimate", pricingHandler.Estimate)

	v1 := e.Group("/v1", auth)

	// --- Sender routes ---
	v1.POST("/pricing/preview", pricingHandler.Preview, senderOnly)
	v1.POST("/shipments", shipmentHandler.Create, senderOnly)
	v1.GET("/shipments", shipmentHandler.ListMine, senderOnly)
	v1.GET("/shipments/:id", shipmentHandler.Get, anyRole)

	// --- Courier routes ---
	v1.GET("/matching/shipments", matchingHandler.Find, courierOnly)
	v1.POST("/bookings", bookingHandler.Create, courierOnly)
	v1.GET("/bookings", bookingHandler.List, courierOnly)
	v1.GET("/bookings/:id", bookingHandler.Get, courierOnly)
	v1.POST("/bookings/:id/complete", bookingHandler.Complete, courierOnly)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel, courierOnly)
	v1.GET("/couriers/me", courierHandler.Me, courierOnly)
	v1.PUT("/couriers/me/location", courierHandler.UpdateLocation, courierOnly)

	return e
}
