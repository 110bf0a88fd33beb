package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/api"
	"github.com/shipmate/marketplace/internal/api/handler"
	"github.com/shipmate/marketplace/internal/core/service"
	"github.com/shipmate/marketplace/internal/infrastructure/broker"
	"github.com/shipmate/marketplace/internal/infrastructure/config"
	mongodb "github.com/shipmate/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/shipmate/marketplace/internal/infrastructure/db/redis"
	"github.com/shipmate/marketplace/internal/infrastructure/queue"
	"github.com/shipmate/marketplace/pkg/logger"
)

func main() {
	log := logger.Init(logger.Options{
		Service: "marketplace-api",
		Level:   os.Getenv("LOG_LEVEL"),
		Pretty:  os.Getenv("ENV") == "development",
	})

	cfg := config.Load(log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connect")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer func() {
		_ = redisClient.Close()
	}()

	shipmentRepo := mongodb.NewShipmentRepository(db)
	courierRepo := mongodb.NewCourierRepository(db)
	bookingRepo := mongodb.NewBookingRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"shipments": shipmentRepo.EnsureIndexes,
		"couriers":  courierRepo.EnsureIndexes,
		"bookings":  bookingRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("ensure indexes")
		}
	}

	// --- Event pipeline ---
	publisher, err := broker.NewPublisher(broker.Config{
		URL:      cfg.Rabbit.URL,
		Exchange: cfg.Rabbit.Exchange,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq connect")
	}
	defer publisher.Close()

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()

	dispatcher := queue.NewDispatcher(cfg.Queue.Workers, publisher, log)
	dispatcher.Start(dispatcherCtx)

	// --- Services ---
	pricingService := service.NewPricingService(pricingConfig(cfg.Pricing), log)
	matchingService := service.NewMatchingService(shipmentRepo, courierRepo, bookingRepo, matchingConfig(cfg.Matching), log)
	bookingService := service.NewBookingService(bookingRepo, shipmentRepo, courierRepo, nil, service.BookingConfig{
		CommissionRate: decimal.NewFromFloat(cfg.Booking.CommissionRate),
	}, log)
	shipmentService := service.NewShipmentService(shipmentRepo, pricingService, log)
	courierService := service.NewCourierService(courierRepo, redisdb.NewLocationCache(redisClient), log)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Mongo:  db,
		Redis:  redisClient,
		Broker: publisher,
		Events: dispatcher,

		Matching:  matchingService,
		Pricing:   pricingService,
		Bookings:  bookingService,
		Shipments: shipmentService,
		Couriers:  courierService,

		MatchingDefaults: handler.MatchingDefaults{
			RadiusKm:      cfg.Matching.DefaultRadiusKm,
			MaxRadiusKm:   cfg.Matching.MaxRadiusKm,
			MaxResults:    cfg.Matching.DefaultMaxResults,
			MaxResultsCap: cfg.Matching.MaxResultsCap,
		},
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	stopDispatcher()
}

func pricingConfig(cfg config.PricingConfig) service.PricingConfig {
	return service.PricingConfig{
		BaseFee:          decimal.NewFromFloat(cfg.BaseFee),
		PricePerKm:       decimal.NewFromFloat(cfg.PricePerKm),
		IncludedWeightKg: decimal.NewFromFloat(cfg.IncludedWeightKg),
		PricePerExtraKg:  decimal.NewFromFloat(cfg.PricePerExtraKg),
		MinPrice:         decimal.NewFromFloat(cfg.MinPrice),

		InsuranceTier1Limit: decimal.NewFromFloat(cfg.InsuranceTier1Limit),
		InsuranceTier1Rate:  decimal.NewFromFloat(cfg.InsuranceTier1Rate),
		InsuranceTier2Limit: decimal.NewFromFloat(cfg.InsuranceTier2Limit),
		InsuranceTier2Rate:  decimal.NewFromFloat(cfg.InsuranceTier2Rate),
		MaxDeclaredValue:    decimal.NewFromFloat(cfg.MaxDeclaredValue),
	}
}

func matchingConfig(cfg config.MatchingConfig) service.MatchingConfig {
	return service.MatchingConfig{
		DefaultRadiusKm:   cfg.DefaultRadiusKm,
		DefaultMaxResults: cfg.DefaultMaxResults,
		ScanLimit:         cfg.ScanLimit,

		PickupWeight:   cfg.PickupWeight,
		CapacityWeight: cfg.CapacityWeight,
		DetourWeight:   cfg.DetourWeight,
		NoDetourBonus:  cfg.NoDetourBonus,
		MaxScore:       cfg.MaxScore,
	}
}
