package services

import (
	"context"
	"sort"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

// DriverLoad is a dispatch candidate: an available driver and the number of
// its trips that are PENDING or ONGOING at snapshot time.
type DriverLoad struct {
	Driver      *entities.User `json:"driver"`
	ActiveTrips int            `json:"active_trips"`
}

// AvailabilityService answers "which drivers could take a trip right now, and
// how busy is each". It reads the store and reserves nothing; the dispatcher
// decides what to do with the result.
type AvailabilityService struct {
	userRepo repository.UserRepository
	tripRepo repository.TripRepository
}

func NewAvailabilityService(userRepo repository.UserRepository, tripRepo repository.TripRepository) *AvailabilityService {
	return &AvailabilityService{userRepo: userRepo, tripRepo: tripRepo}
}

// Snapshot returns every available driver ordered by (ActiveTrips ascending,
// driver ID ascending). The order is total, so callers that pick the first
// entry always pick the same driver for the same store state.
//
// A failing store read yields a Transient error and no candidates.
func (s *AvailabilityService) Snapshot(ctx context.Context) ([]DriverLoad, error) {
	drivers, err := s.userRepo.ListAvailableDrivers(ctx)
	if err != nil {
		return nil, storeError("driver", "", err, nil)
	}
	if len(drivers) == 0 {
		return nil, nil
	}

	counts, err := s.tripRepo.ActiveCountsByDriver(ctx)
	if err != nil {
		return nil, storeError("trip", "", err, nil)
	}

	loads := make([]DriverLoad, 0, len(drivers))
	for _, d := range drivers {
		loads = append(loads, DriverLoad{Driver: d, ActiveTrips: counts[d.ID]})
	}
	sortByLoad(loads)
	return loads, nil
}

// ActiveTrips counts one driver's PENDING and ONGOING trips.
func (s *AvailabilityService) ActiveTrips(ctx context.Context, driverID string) (int, error) {
	n, err := s.tripRepo.CountActiveByDriverID(ctx, driverID)
	if err != nil {
		return 0, storeError("trip", "", err, nil)
	}
	return n, nil
}

func sortByLoad(loads []DriverLoad) {
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].ActiveTrips != loads[j].ActiveTrips {
			return loads[i].ActiveTrips < loads[j].ActiveTrips
		}
		return loads[i].Driver.ID < loads[j].Driver.ID
	})
}
