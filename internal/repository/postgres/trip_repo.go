package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

const tripColumns = `id, passenger_id, COALESCE(driver_id, ''), requested_at,
	start_time, end_time, status, updated_at`

type TripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, t *entities.Trip) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trips (id, passenger_id, driver_id, requested_at, start_time, end_time, status, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		t.ID, t.PassengerID, t.DriverID, t.RequestedAt,
		t.StartTime, t.EndTime, string(t.Status), t.UpdatedAt,
	)
	return mapError(err, nil)
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*entities.Trip, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err != nil {
		return nil, mapError(err, repository.ErrTripNotFound)
	}
	return t, nil
}

// UpdateStatus is a compare-and-set on status. Participants are never written.
func (r *TripRepository) UpdateStatus(ctx context.Context, t *entities.Trip, expected entities.TripStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trips
		SET status = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $1 AND status = $6`,
		t.ID, string(t.Status), t.StartTime, t.EndTime, t.UpdatedAt, string(expected),
	)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrTripNotFound
	}
	return repository.ErrStatusConflict
}

func (r *TripRepository) List(ctx context.Context) ([]*entities.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY requested_at, id`)
}

func (r *TripRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY requested_at, id`, driverID)
}

func (r *TripRepository) CountActiveByDriverID(ctx context.Context, driverID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trips
		WHERE driver_id = $1 AND status = ANY($2)`,
		driverID, activeStatuses(),
	).Scan(&n)
	return n, err
}

// ActiveCountsByDriver runs as one statement, so the counts share a snapshot.
func (r *TripRepository) ActiveCountsByDriver(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT driver_id, COUNT(*) FROM trips
		WHERE driver_id IS NOT NULL AND status = ANY($1)
		GROUP BY driver_id`,
		activeStatuses(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			driverID string
			n        int
		)
		if err := rows.Scan(&driverID, &n); err != nil {
			return nil, err
		}
		counts[driverID] = n
	}
	return counts, rows.Err()
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Trip, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Trip, error) {
		return scanTrip(row)
	})
}

func activeStatuses() []string {
	out := make([]string, 0, len(entities.ActiveTripStatuses))
	for _, s := range entities.ActiveTripStatuses {
		out = append(out, string(s))
	}
	return out
}

func scanTrip(row pgx.Row) (*entities.Trip, error) {
	var (
		t      entities.Trip
		status string
	)
	err := row.Scan(
		&t.ID, &t.PassengerID, &t.DriverID, &t.RequestedAt,
		&t.StartTime, &t.EndTime, &status, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = entities.TripStatus(status)
	return &t, nil
}
