package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rides/internal/api"
	"rides/internal/api/handlers"
	"rides/internal/config"
	"rides/internal/events"
	"rides/internal/logging"
	"rides/internal/repository"
	"rides/internal/repository/memory"
	"rides/internal/repository/postgres"
	"rides/internal/repository/redislock"
	"rides/internal/services"
	"rides/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// stores bundles whichever repository implementation the config selects.
type stores struct {
	users    repository.UserRepository
	vehicles repository.VehicleRepository
	trips    repository.TripRepository
	ratings  repository.RatingRepository
}

// Go Learning Note — Graceful Shutdown:
// signal.NotifyContext returns a context that is cancelled on SIGINT/SIGTERM.
// The server runs in its own goroutine; main blocks on ctx.Done() and then
// gives in-flight requests ShutdownTimeout to finish. Deferred cleanups run in
// reverse order, so the pool and Redis client close after the server stops.
func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)

	// Repositories
	var st stores
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		pg := postgres.NewStore(pool)
		st = stores{users: pg.Users, vehicles: pg.Vehicles, trips: pg.Trips, ratings: pg.Ratings}
	default:
		st = stores{
			users:    memory.NewUserRepository(),
			vehicles: memory.NewVehicleRepository(),
			trips:    memory.NewTripRepository(),
			ratings:  memory.NewRatingRepository(),
		}
	}
	logger.Info("store ready", zap.String("driver", cfg.Store.Driver))

	// Driver reservations
	var dispatchOpts []services.DispatchOption
	if cfg.Dispatch.ReserveDrivers {
		var locks repository.LockManager
		if cfg.Dispatch.RedisAddr != "" {
			client, err := redislock.NewClient(ctx, cfg.Dispatch.RedisAddr, cfg.Dispatch.RedisPassword)
			if err != nil {
				return err
			}
			defer client.Close()
			locks = redislock.New(client)
			logger.Info("driver reservations via redis", zap.String("addr", cfg.Dispatch.RedisAddr))
		} else {
			lm := memory.NewLockManager()
			defer lm.Stop()
			locks = lm
		}
		dispatchOpts = append(dispatchOpts, services.WithReservations(locks, cfg.Dispatch.ReservationTTL))
	}

	// Trip events
	var publisher events.Publisher
	if len(cfg.Events.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		logger.Info("trip events to kafka",
			zap.Strings("brokers", cfg.Events.KafkaBrokers),
			zap.String("topic", cfg.Events.KafkaTopic),
		)
	} else {
		publisher = events.NewLogPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}()

	// Services
	availability := services.NewAvailabilityService(st.users, st.trips)
	dispatchService := services.NewDispatchService(st.users, st.trips, availability, publisher, logger, dispatchOpts...)
	tripService := services.NewTripService(st.trips, publisher, logger)
	fareService := services.NewFareService(st.trips, availability,
		utils.NewPricingCalculator(cfg.Pricing.BaseFare, cfg.Pricing.SurgeDivisor))
	ratingService := services.NewRatingService(st.ratings, st.trips, st.users, logger)
	userService := services.NewUserService(st.users, logger)
	vehicleService := services.NewVehicleService(st.vehicles, st.users)

	// Handlers and router
	router := api.NewRouter(
		handlers.NewTripHandler(dispatchService, tripService, fareService, ratingService),
		handlers.NewDriverHandler(ratingService, userService),
		handlers.NewRatingHandler(ratingService),
		handlers.NewVehicleHandler(vehicleService),
		handlers.NewUserHandler(userService),
		st.users,
		logger,
	)
	engine := gin.New()
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting ride dispatch server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
