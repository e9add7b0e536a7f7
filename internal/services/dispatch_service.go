package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rides/internal/domain/entities"
	"rides/internal/events"
	"rides/internal/observability"
	"rides/internal/repository"
	"rides/pkg/utils"
)

// DispatchService turns a passenger's request into a PENDING trip bound to the
// least-loaded available driver.
//
// Without a LockManager the choice is a best-effort heuristic: two requests
// that snapshot the index at the same time can both pick the same driver.
// With one, each request reserves "driver:<id>" for the short window between
// choosing a driver and committing the trip, and concurrent requests move on
// to the next candidate instead. When every candidate stays reserved through
// the retry rounds, the request falls back to the head of the snapshot
// unreserved: an eligible driver always gets the trip.
type DispatchService struct {
	userRepo     repository.UserRepository
	tripRepo     repository.TripRepository
	availability *AvailabilityService
	locks        repository.LockManager
	publisher    events.Publisher
	logger       *zap.Logger

	reservationTTL time.Duration
	retryBackoff   time.Duration
	now            func() time.Time
}

// reservationRounds is how many times choose walks the candidates before
// falling back to an unreserved pick. The wait between rounds doubles.
const reservationRounds = 3

// DispatchOption configures optional DispatchService behaviour.
type DispatchOption func(*DispatchService)

// WithReservations enables per-driver reservation through locks. Each
// reservation expires after ttl even if it is never released.
func WithReservations(locks repository.LockManager, ttl time.Duration) DispatchOption {
	return func(s *DispatchService) {
		s.locks = locks
		s.reservationTTL = ttl
	}
}

// WithClock replaces time.Now for trip timestamps.
func WithClock(now func() time.Time) DispatchOption {
	return func(s *DispatchService) { s.now = now }
}

func NewDispatchService(
	userRepo repository.UserRepository,
	tripRepo repository.TripRepository,
	availability *AvailabilityService,
	publisher events.Publisher,
	logger *zap.Logger,
	opts ...DispatchOption,
) *DispatchService {
	s := &DispatchService{
		userRepo:       userRepo,
		tripRepo:       tripRepo,
		availability:   availability,
		publisher:      publisher,
		logger:         logger.Named("dispatch"),
		reservationTTL: 5 * time.Second,
		retryBackoff:   10 * time.Millisecond,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestTrip creates a PENDING trip for passengerID with the least-loaded
// available driver, ties broken by lowest driver ID.
//
// Errors: NotFound when the passenger does not exist, Forbidden when the user
// is not a passenger, NoDriversAvailable when no driver is available (no trip
// is written), Transient when the store fails or ctx ends before commit.
func (s *DispatchService) RequestTrip(ctx context.Context, passengerID string) (*entities.Trip, error) {
	start := time.Now()

	passenger, err := s.userRepo.GetByID(ctx, passengerID)
	if err != nil {
		return nil, s.fail(storeError("passenger", passengerID, err, repository.ErrUserNotFound))
	}
	if !passenger.IsPassenger {
		return nil, s.fail(newError(ErrForbidden, "passenger", passengerID, nil))
	}

	candidates, err := s.availability.Snapshot(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	observability.DispatchCandidates.Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		observability.DispatchTotal.WithLabelValues(observability.OutcomeNoDrivers).Inc()
		return nil, newError(ErrNoDriversAvailable, "", "", nil)
	}

	driver, release, err := s.choose(ctx, candidates)
	if err != nil {
		return nil, s.fail(err)
	}

	trip := entities.NewTrip(utils.GenerateID(), passengerID, driver.Driver.ID, s.now())
	err = s.tripRepo.Create(ctx, trip)
	release()
	if err != nil {
		return nil, s.fail(storeError("trip", trip.ID, err, nil))
	}

	observability.DispatchTotal.WithLabelValues(observability.OutcomeAssigned).Inc()
	observability.DispatchLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("trip dispatched",
		zap.String("trip_id", trip.ID),
		zap.String("passenger_id", passengerID),
		zap.String("driver_id", trip.DriverID),
		zap.Int("driver_active_trips", driver.ActiveTrips),
		zap.Int("candidates", len(candidates)),
	)
	s.publish(ctx, events.Requested(trip))
	return trip, nil
}

// choose walks candidates in snapshot order. Without reservations it takes the
// head. With reservations it takes the first driver it can reserve whose load
// has not grown past the next candidate's since the snapshot, retrying for
// reservationRounds with backoff and then taking the head unreserved.
//
// The returned release func is non-nil whenever err is nil.
func (s *DispatchService) choose(ctx context.Context, candidates []DriverLoad) (DriverLoad, func(), error) {
	if s.locks == nil {
		return candidates[0], func() {}, nil
	}

	backoff := s.retryBackoff
	for round := 1; ; round++ {
		c, release, ok, err := s.reserveFirst(ctx, candidates)
		if err != nil || ok {
			return c, release, err
		}
		if round >= reservationRounds {
			break
		}
		if err := sleepCtx(ctx, backoff); err != nil {
			return DriverLoad{}, nil, newError(ErrTransient, "driver", "", err)
		}
		backoff *= 2
	}

	observability.ReservationFallbacks.Inc()
	s.logger.Info("every candidate reserved, dispatching without reservation",
		zap.String("driver_id", candidates[0].Driver.ID),
		zap.Int("candidates", len(candidates)),
	)
	return candidates[0], func() {}, nil
}

// reserveFirst makes one pass over candidates. ok is false when every
// candidate was held by another request.
func (s *DispatchService) reserveFirst(ctx context.Context, candidates []DriverLoad) (DriverLoad, func(), bool, error) {
	for i, c := range candidates {
		key := reservationKey(c.Driver.ID)
		token, ok, err := s.locks.AcquireLock(ctx, key, s.reservationTTL)
		if err != nil {
			return DriverLoad{}, nil, false, newError(ErrTransient, "driver", c.Driver.ID, err)
		}
		if !ok {
			observability.ReservationsSkipped.Inc()
			s.logger.Debug("driver reserved by another request", zap.String("driver_id", c.Driver.ID))
			continue
		}
		release := func() { s.release(ctx, key, token) }

		// Another request may have committed a trip for this driver between
		// the snapshot and the reservation.
		current, err := s.availability.ActiveTrips(ctx, c.Driver.ID)
		if err != nil {
			release()
			return DriverLoad{}, nil, false, err
		}
		if current > c.ActiveTrips && i+1 < len(candidates) && candidates[i+1].ActiveTrips < current {
			release()
			continue
		}
		c.ActiveTrips = current
		return c, release, true, nil
	}
	return DriverLoad{}, nil, false, nil
}

func (s *DispatchService) release(ctx context.Context, key, token string) {
	// The reservation must go even when the request context is already done.
	if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
		s.logger.Warn("release driver reservation", zap.String("key", key), zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DispatchService) fail(err error) error {
	if !errors.Is(err, ErrNoDriversAvailable) {
		observability.DispatchTotal.WithLabelValues(observability.OutcomeError).Inc()
	}
	return err
}

func (s *DispatchService) publish(ctx context.Context, ev events.TripEvent) {
	publishEvent(ctx, s.publisher, s.logger, ev)
}

func reservationKey(driverID string) string {
	return "driver:" + driverID
}

// publishEvent delivers ev on a context detached from request cancellation.
// Failures are logged and counted; the committed state change stands.
func publishEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, ev events.TripEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		observability.EventPublishFailures.Inc()
		logger.Warn("publish trip event",
			zap.String("type", ev.Type),
			zap.String("trip_id", ev.TripID),
			zap.Error(err),
		)
	}
}
