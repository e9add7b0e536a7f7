package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

const vehicleColumns = `id, driver_id, license_plate, model, capacity, created_at`

type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create relies on the license_plate unique constraint for plate uniqueness.
func (r *VehicleRepository) Create(ctx context.Context, v *entities.Vehicle) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.DriverID, v.LicensePlate, v.Model, v.Capacity, v.CreatedAt,
	)
	return mapError(err, nil)
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entities.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, mapError(err, repository.ErrVehicleNotFound)
	}
	return v, nil
}

func (r *VehicleRepository) List(ctx context.Context) ([]*entities.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
}

func (r *VehicleRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE driver_id = $1 ORDER BY id`, driverID)
}

func (r *VehicleRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Vehicle, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Vehicle, error) {
		return scanVehicle(row)
	})
}

func scanVehicle(row pgx.Row) (*entities.Vehicle, error) {
	var v entities.Vehicle
	if err := row.Scan(&v.ID, &v.DriverID, &v.LicensePlate, &v.Model, &v.Capacity, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
