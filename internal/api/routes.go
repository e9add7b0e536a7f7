package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rides/internal/api/handlers"
	"rides/internal/api/middleware"
	"rides/internal/repository"
)

type Router struct {
	tripHandler    *handlers.TripHandler
	driverHandler  *handlers.DriverHandler
	ratingHandler  *handlers.RatingHandler
	vehicleHandler *handlers.VehicleHandler
	userHandler    *handlers.UserHandler

	users  repository.UserRepository
	logger *zap.Logger
}

func NewRouter(
	tripHandler *handlers.TripHandler,
	driverHandler *handlers.DriverHandler,
	ratingHandler *handlers.RatingHandler,
	vehicleHandler *handlers.VehicleHandler,
	userHandler *handlers.UserHandler,
	users repository.UserRepository,
	logger *zap.Logger,
) *Router {
	return &Router{
		tripHandler:    tripHandler,
		driverHandler:  driverHandler,
		ratingHandler:  ratingHandler,
		vehicleHandler: vehicleHandler,
		userHandler:    userHandler,
		users:          users,
		logger:         logger,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(r.logger),
		middleware.Logger(r.logger),
		middleware.Metrics(),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := engine.Group("/api")
	public.POST("/users", r.userHandler.Register)

	api := engine.Group("/api")
	api.Use(middleware.BearerAuth(r.users))
	{
		trips := api.Group("/trips")
		{
			trips.POST("/request", r.tripHandler.RequestTrip)
			trips.GET("", r.tripHandler.ListTrips)
			trips.GET("/:id", r.tripHandler.GetTrip)
			trips.GET("/:id/status", r.tripHandler.GetStatus)
			trips.GET("/:id/fare", r.tripHandler.GetFare)
			trips.POST("/:id/transition", r.tripHandler.Transition)
			trips.POST("/:id/start", r.tripHandler.Start)
			trips.POST("/:id/complete", r.tripHandler.Complete)
			trips.POST("/:id/cancel", r.tripHandler.Cancel)
			trips.POST("/:id/rating", r.tripHandler.SubmitRating)
		}

		drivers := api.Group("/drivers")
		{
			drivers.GET("", r.driverHandler.ListDrivers)
			drivers.GET("/top", r.driverHandler.TopDrivers)
			drivers.PATCH("/me/availability", middleware.RequireDriver(), r.driverHandler.SetAvailability)
		}

		ratings := api.Group("/ratings")
		{
			ratings.GET("", r.ratingHandler.List)
			ratings.GET("/:id", r.ratingHandler.Get)
			ratings.PATCH("/:id", r.ratingHandler.Update)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.POST("", middleware.RequireDriver(), r.vehicleHandler.Create)
			vehicles.GET("", r.vehicleHandler.List)
			vehicles.GET("/:id", r.vehicleHandler.Get)
		}
	}
}
