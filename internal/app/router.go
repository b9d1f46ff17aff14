package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"drainflow/internal/handler"
	"drainflow/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler  *handler.BookingHandler
	TripHandler     *handler.TripHandler
	TrackingHandler *handler.TrackingHandler
	OperatorHandler *handler.OperatorHandler
	CustomerHandler *handler.CustomerHandler
	HistoryHandler  *handler.HistoryHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	IdempotencyTTL  time.Duration
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.IdempotencyTTL))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Customer routes.
		customers := v1.Group("/customers")
		{
			customers.POST("/register", deps.CustomerHandler.Register)
			customers.GET("", deps.CustomerHandler.ListCustomers)
			customers.GET("/:id", deps.CustomerHandler.GetCustomer)
		}

		// Operator routes.
		operators := v1.Group("/operators")
		{
			operators.POST("/register", deps.OperatorHandler.Register)
			operators.GET("/:id", deps.OperatorHandler.GetOperator)
			operators.POST("/:id/location", deps.OperatorHandler.UpdateLocation)
			operators.POST("/:id/offline", deps.OperatorHandler.SetOffline)
			operators.GET("/:id/earnings", deps.HistoryHandler.Earnings)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
		}

		// Trip lifecycle routes.
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.ListTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/ws", deps.TrackingHandler.Watch)
			trips.POST("/:id/start-travel", deps.TripHandler.StartTravel)
			trips.POST("/:id/position", deps.TripHandler.PushPosition)
			trips.POST("/:id/arrived", deps.TripHandler.MarkArrived)
			trips.POST("/:id/begin-service", deps.TripHandler.BeginService)
			trips.POST("/:id/finish-service", deps.TripHandler.FinishService)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
		}

		// History routes.
		v1.GET("/history", deps.HistoryHandler.List)
	}

	return router
}
