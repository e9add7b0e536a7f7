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
)

// maxTransitionAttempts bounds the reload-and-revalidate loop when another
// request changes the trip's status underneath us.
const maxTransitionAttempts = 3

// TripService reads trips and applies lifecycle transitions. The allowed
// moves live on entities.Trip; this service persists them with a
// compare-and-set on the current status, so two concurrent transitions of the
// same trip can never both commit.
type TripService struct {
	tripRepo  repository.TripRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTripService(tripRepo repository.TripRepository, publisher events.Publisher, logger *zap.Logger) *TripService {
	return &TripService{
		tripRepo:  tripRepo,
		publisher: publisher,
		logger:    logger.Named("trips"),
		now:       time.Now,
	}
}

func (s *TripService) GetTrip(ctx context.Context, tripID string) (*entities.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, storeError("trip", tripID, err, repository.ErrTripNotFound)
	}
	return trip, nil
}

func (s *TripService) GetTripStatus(ctx context.Context, tripID string) (entities.TripStatus, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return "", err
	}
	return trip.Status, nil
}

// ListTrips returns all trips, or only driverID's when it is non-empty.
func (s *TripService) ListTrips(ctx context.Context, driverID string) ([]*entities.Trip, error) {
	var (
		trips []*entities.Trip
		err   error
	)
	if driverID != "" {
		trips, err = s.tripRepo.ListByDriverID(ctx, driverID)
	} else {
		trips, err = s.tripRepo.List(ctx)
	}
	if err != nil {
		return nil, storeError("trip", "", err, nil)
	}
	return trips, nil
}

// TransitionTrip moves tripID to newStatus.
//
// Errors: NotFound for an unknown trip, InvalidTransition when the move is not
// allowed from the trip's current status (including when a concurrent request
// got there first), Transient on store failure.
func (s *TripService) TransitionTrip(ctx context.Context, tripID string, newStatus entities.TripStatus) (*entities.Trip, error) {
	return s.transition(ctx, tripID, newStatus, nil)
}

// TransitionTripAs is TransitionTrip restricted to the trip's passenger and
// driver. Anyone else gets Forbidden.
func (s *TripService) TransitionTripAs(ctx context.Context, actorID, tripID string, newStatus entities.TripStatus) (*entities.Trip, error) {
	return s.transition(ctx, tripID, newStatus, func(trip *entities.Trip) error {
		if actorID != trip.PassengerID && actorID != trip.DriverID {
			return newError(ErrForbidden, "trip", tripID, nil)
		}
		return nil
	})
}

func (s *TripService) StartTrip(ctx context.Context, tripID string) (*entities.Trip, error) {
	return s.TransitionTrip(ctx, tripID, entities.TripStatusOngoing)
}

func (s *TripService) CompleteTrip(ctx context.Context, tripID string) (*entities.Trip, error) {
	return s.TransitionTrip(ctx, tripID, entities.TripStatusCompleted)
}

func (s *TripService) CancelTrip(ctx context.Context, tripID string) (*entities.Trip, error) {
	return s.TransitionTrip(ctx, tripID, entities.TripStatusCancelled)
}

func (s *TripService) transition(ctx context.Context, tripID string, newStatus entities.TripStatus, authorize func(*entities.Trip) error) (*entities.Trip, error) {
	if _, ok := entities.ParseTripStatus(string(newStatus)); !ok {
		return nil, newError(ErrBadRequest, "status", string(newStatus), nil)
	}

	for attempt := 1; ; attempt++ {
		current, err := s.GetTrip(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if authorize != nil {
			if err := authorize(current); err != nil {
				return nil, err
			}
		}

		next := current.Clone()
		if err := next.TransitionTo(newStatus, s.now()); err != nil {
			return nil, newError(ErrInvalidTransition, "trip", tripID, err)
		}

		err = s.tripRepo.UpdateStatus(ctx, next, current.Status)
		switch {
		case err == nil:
			observability.TripTransitionsTotal.WithLabelValues(string(current.Status), string(next.Status)).Inc()
			s.logger.Info("trip transitioned",
				zap.String("trip_id", tripID),
				zap.String("from", string(current.Status)),
				zap.String("to", string(next.Status)),
			)
			publishEvent(ctx, s.publisher, s.logger, events.Transitioned(next, current.Status))
			return next, nil
		case errors.Is(err, repository.ErrStatusConflict):
			observability.TripTransitionConflicts.Inc()
			if attempt >= maxTransitionAttempts {
				return nil, newError(ErrTransient, "trip", tripID, err)
			}
			// Re-read and re-validate against whatever status won.
			continue
		default:
			return nil, storeError("trip", tripID, err, repository.ErrTripNotFound)
		}
	}
}
