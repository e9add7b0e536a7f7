package memory

import (
	"context"
	"sort"
	"sync"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

type VehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*entities.Vehicle
	plates   map[string]string // license plate → vehicleID
}

func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{
		vehicles: make(map[string]*entities.Vehicle),
		plates:   make(map[string]string),
	}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *entities.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, taken := r.plates[vehicle.LicensePlate]; taken {
		return repository.ErrDuplicate
	}
	cp := *vehicle
	r.vehicles[vehicle.ID] = &cp
	r.plates[vehicle.LicensePlate] = vehicle.ID
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entities.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, exists := r.vehicles[id]
	if !exists {
		return nil, repository.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *VehicleRepository) List(ctx context.Context) ([]*entities.Vehicle, error) {
	return r.filter(ctx, func(*entities.Vehicle) bool { return true })
}

func (r *VehicleRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Vehicle, error) {
	return r.filter(ctx, func(v *entities.Vehicle) bool { return v.DriverID == driverID })
}

func (r *VehicleRepository) filter(ctx context.Context, keep func(*entities.Vehicle) bool) ([]*entities.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Vehicle
	for _, v := range r.vehicles {
		if keep(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
