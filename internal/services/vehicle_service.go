package services

import (
	"context"
	"strings"

	"rides/internal/domain/entities"
	"rides/internal/repository"
	"rides/pkg/utils"
)

// VehicleService manages driver vehicles. Vehicles are informational only and
// play no part in dispatch.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, userRepo repository.UserRepository) *VehicleService {
	return &VehicleService{vehicleRepo: vehicleRepo, userRepo: userRepo}
}

// RegisterVehicle adds a vehicle owned by driverID. License plates are unique
// across all drivers.
func (s *VehicleService) RegisterVehicle(ctx context.Context, driverID, plate, model string, capacity int) (*entities.Vehicle, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, newError(ErrBadRequest, "license_plate", "", nil)
	}
	if capacity <= 0 {
		return nil, newError(ErrBadRequest, "capacity", "", nil)
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, storeError("driver", driverID, err, repository.ErrUserNotFound)
	}
	if !driver.IsDriver {
		return nil, newError(ErrForbidden, "driver", driverID, nil)
	}

	vehicle := entities.NewVehicle(utils.GenerateID(), driverID, plate, model, capacity)
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, storeError("vehicle", plate, err, nil)
	}
	return vehicle, nil
}

func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*entities.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, storeError("vehicle", vehicleID, err, repository.ErrVehicleNotFound)
	}
	return vehicle, nil
}

// ListVehicles returns all vehicles, or only driverID's when non-empty.
func (s *VehicleService) ListVehicles(ctx context.Context, driverID string) ([]*entities.Vehicle, error) {
	var (
		vehicles []*entities.Vehicle
		err      error
	)
	if driverID != "" {
		vehicles, err = s.vehicleRepo.ListByDriverID(ctx, driverID)
	} else {
		vehicles, err = s.vehicleRepo.List(ctx)
	}
	if err != nil {
		return nil, storeError("vehicle", "", err, nil)
	}
	return vehicles, nil
}
