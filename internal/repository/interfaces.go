// Package repository declares the entity store the dispatch core depends on.
// Two implementations exist: memory (single process, used by tests and local
// runs) and postgres. Every method takes a context and must either commit a
// whole record or nothing.
package repository

import (
	"context"
	"errors"
	"time"

	"rides/internal/domain/entities"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrTripNotFound    = errors.New("trip not found")
	ErrRatingNotFound  = errors.New("rating not found")

	// ErrStatusConflict is returned by TripRepository.UpdateStatus when the
	// stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("trip status changed concurrently")

	// ErrDuplicate is returned when a uniqueness rule (one rating per trip,
	// unique license plate, unique user id) would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	ListDrivers(ctx context.Context) ([]*entities.User, error)
	// ListAvailableDrivers returns users with IsDriver and IsAvailable set.
	ListAvailableDrivers(ctx context.Context) ([]*entities.User, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entities.Vehicle) error
	GetByID(ctx context.Context, id string) (*entities.Vehicle, error)
	List(ctx context.Context) ([]*entities.Vehicle, error)
	ListByDriverID(ctx context.Context, driverID string) ([]*entities.Vehicle, error)
}

type TripRepository interface {
	Create(ctx context.Context, trip *entities.Trip) error
	GetByID(ctx context.Context, id string) (*entities.Trip, error)
	// UpdateStatus persists trip's status and timestamps only if the stored
	// status still equals expected. Otherwise ErrStatusConflict.
	UpdateStatus(ctx context.Context, trip *entities.Trip, expected entities.TripStatus) error
	List(ctx context.Context) ([]*entities.Trip, error)
	ListByDriverID(ctx context.Context, driverID string) ([]*entities.Trip, error)
	// CountActiveByDriverID counts the driver's trips in an active status.
	CountActiveByDriverID(ctx context.Context, driverID string) (int, error)
	// ActiveCountsByDriver returns the active-trip count of every driver that
	// has at least one active trip, read as one point-in-time snapshot.
	ActiveCountsByDriver(ctx context.Context) (map[string]int, error)
}

type RatingRepository interface {
	Create(ctx context.Context, rating *entities.Rating) error
	GetByID(ctx context.Context, id string) (*entities.Rating, error)
	GetByTripID(ctx context.Context, tripID string) (*entities.Rating, error)
	Update(ctx context.Context, rating *entities.Rating) error
	List(ctx context.Context) ([]*entities.Rating, error)
	ListByDriverID(ctx context.Context, driverID string) ([]*entities.Rating, error)
}

// LockManager reserves named keys for a bounded time. The dispatcher uses it
// to hold "driver:<id>" while a trip is being created for that driver.
//
// AcquireLock returns a token unique to that acquisition. ReleaseLock frees the
// key only while it is still held under that token, so a holder whose
// reservation expired cannot release the next holder's.
type LockManager interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}
