package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

const ratingColumns = `id, trip_id, driver_id, score, comment, created_at, updated_at`

type RatingRepository struct {
	db *pgxpool.Pool
}

func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create relies on the trip_id unique constraint for one rating per trip.
func (r *RatingRepository) Create(ctx context.Context, rt *entities.Rating) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ratings (`+ratingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rt.ID, rt.TripID, rt.DriverID, rt.Score, rt.Comment, rt.CreatedAt, rt.UpdatedAt,
	)
	return mapError(err, nil)
}

func (r *RatingRepository) GetByID(ctx context.Context, id string) (*entities.Rating, error) {
	return r.get(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id)
}

func (r *RatingRepository) GetByTripID(ctx context.Context, tripID string) (*entities.Rating, error) {
	return r.get(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE trip_id = $1`, tripID)
}

func (r *RatingRepository) Update(ctx context.Context, rt *entities.Rating) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ratings SET score = $2, comment = $3, updated_at = $4
		WHERE id = $1`,
		rt.ID, rt.Score, rt.Comment, rt.UpdatedAt,
	)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRatingNotFound
	}
	return nil
}

func (r *RatingRepository) List(ctx context.Context) ([]*entities.Rating, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings ORDER BY id`)
}

func (r *RatingRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Rating, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE driver_id = $1 ORDER BY id`, driverID)
}

func (r *RatingRepository) get(ctx context.Context, query string, arg string) (*entities.Rating, error) {
	rt, err := scanRating(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, repository.ErrRatingNotFound)
	}
	return rt, nil
}

func (r *RatingRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Rating, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Rating, error) {
		return scanRating(row)
	})
}

func scanRating(row pgx.Row) (*entities.Rating, error) {
	var rt entities.Rating
	err := row.Scan(&rt.ID, &rt.TripID, &rt.DriverID, &rt.Score, &rt.Comment, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
