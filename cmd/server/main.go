package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"drainflow/internal/app"
	"drainflow/internal/clock"
	"drainflow/internal/config"
	"drainflow/internal/handler"
	internalRedis "drainflow/internal/redis"
	"drainflow/internal/repository/postgres"
	"drainflow/internal/service"
	"drainflow/internal/ws"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	clk := clock.System()

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	customerRepo := postgres.NewCustomerRepository(db)
	operatorRepo := postgres.NewOperatorRepository(db)
	recordStore := postgres.NewTripRecordStore(db)

	// Initialize the live-tracking hub and services.
	hub := ws.NewHub()
	registry := service.NewRegistry()
	notificationService := service.NewNotificationService()

	billingCalc, err := service.NewBillingCalculator(cfg.Billing.RatePerMinute, cfg.Billing.TaxPercent)
	if err != nil {
		log.Fatalf("invalid billing tariff: %v", err)
	}

	trackingService := service.NewTrackingService(
		service.TrackingConfig{
			ArrivalThresholdM:  cfg.Tracking.ArrivalThresholdM,
			AssumedSpeedKmh:    cfg.Tracking.AssumedSpeedKmh,
			MinSampleInterval:  cfg.Tracking.MinSampleInterval,
			MinSampleDistanceM: cfg.Tracking.MinSampleDistanceM,
			SimTick:            cfg.Tracking.SimTick,
			SimStepFraction:    cfg.Tracking.SimStepFraction,
			SimJitterDeg:       cfg.Tracking.SimJitterDeg,
		},
		clk, registry, recordStore, billingCalc,
		operatorRepo, locationStore, cacheStore, hub, notificationService,
	)
	matchingService := service.NewMatchingService(db, locationStore, lockStore, cacheStore, operatorRepo, registry)
	bookingService := service.NewBookingService(clk, customerRepo, trackingService, matchingService, notificationService)
	operatorService := service.NewOperatorService(locationStore, cacheStore, operatorRepo)
	customerService := service.NewCustomerService(clk, customerRepo)
	historyService := service.NewHistoryService(recordStore)

	// Initialize handlers.
	bookingHandler := handler.NewBookingHandler(bookingService)
	tripHandler := handler.NewTripHandler(trackingService)
	trackingHandler := handler.NewTrackingHandler(hub, trackingService)
	operatorHandler := handler.NewOperatorHandler(operatorService, operatorRepo)
	customerHandler := handler.NewCustomerHandler(customerService, customerRepo)
	historyHandler := handler.NewHistoryHandler(historyService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler:  bookingHandler,
		TripHandler:     tripHandler,
		TrackingHandler: trackingHandler,
		OperatorHandler: operatorHandler,
		CustomerHandler: customerHandler,
		HistoryHandler:  historyHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		IdempotencyTTL:  cfg.Server.IdempotencyTTL,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
