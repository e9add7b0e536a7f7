package services

import (
	"context"

	"rides/internal/domain/entities"
	"rides/internal/repository"
	"rides/pkg/utils"
)

// FareService prices a trip from its driver's load at read time. Fares are
// never stored: two reads with no trip changes in between return the same
// value, and a new active trip for the driver can only raise it.
type FareService struct {
	tripRepo     repository.TripRepository
	availability *AvailabilityService
	calculator   *utils.PricingCalculator
}

func NewFareService(tripRepo repository.TripRepository, availability *AvailabilityService, calculator *utils.PricingCalculator) *FareService {
	return &FareService{
		tripRepo:     tripRepo,
		availability: availability,
		calculator:   calculator,
	}
}

// Quote returns the fare breakdown, or nil when the trip has no driver.
func (s *FareService) Quote(ctx context.Context, trip *entities.Trip) (*utils.FareQuote, error) {
	if trip.DriverID == "" {
		return nil, nil
	}
	active, err := s.availability.ActiveTrips(ctx, trip.DriverID)
	if err != nil {
		return nil, err
	}
	quote := s.calculator.CalculateFare(active)
	return &quote, nil
}

// Fare is Quote reduced to the total.
func (s *FareService) Fare(ctx context.Context, trip *entities.Trip) (*int64, error) {
	quote, err := s.Quote(ctx, trip)
	if err != nil || quote == nil {
		return nil, err
	}
	total := quote.TotalFare
	return &total, nil
}

// GetFare prices the stored trip tripID.
func (s *FareService) GetFare(ctx context.Context, tripID string) (*int64, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, storeError("trip", tripID, err, repository.ErrTripNotFound)
	}
	return s.Fare(ctx, trip)
}
