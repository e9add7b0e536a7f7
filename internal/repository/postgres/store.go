// Package postgres implements the repository interfaces on PostgreSQL through
// a pgx connection pool. Every write is a single statement, so a record is
// either fully committed or not at all, and every call honours its context.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/repository"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.VehicleRepository = (*VehicleRepository)(nil)
	_ repository.TripRepository    = (*TripRepository)(nil)
	_ repository.RatingRepository  = (*RatingRepository)(nil)
)

// Open connects a pool and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates any missing tables and indexes. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// No arguments, so pgx sends this over the simple protocol, which accepts
	// several statements at once.
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store groups the repositories that share one pool.
type Store struct {
	Users    *UserRepository
	Vehicles *VehicleRepository
	Trips    *TripRepository
	Ratings  *RatingRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:    NewUserRepository(pool),
		Vehicles: NewVehicleRepository(pool),
		Trips:    NewTripRepository(pool),
		Ratings:  NewRatingRepository(pool),
	}
}

// mapError turns driver errors into repository sentinels. notFound is used
// for pgx.ErrNoRows.
func mapError(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
