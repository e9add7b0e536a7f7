package memory

import (
	"context"
	"sort"
	"sync"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

// TripRepository stores trips in memory. A single RWMutex guards the map, so
// every read observes one consistent snapshot and every write is atomic.
type TripRepository struct {
	mu    sync.RWMutex
	trips map[string]*entities.Trip
}

func NewTripRepository() *TripRepository {
	return &TripRepository{
		trips: make(map[string]*entities.Trip),
	}
}

func (r *TripRepository) Create(ctx context.Context, trip *entities.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Checked under the lock so a cancelled caller can never commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := r.trips[trip.ID]; exists {
		return repository.ErrDuplicate
	}
	r.trips[trip.ID] = trip.Clone()
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*entities.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, exists := r.trips[id]
	if !exists {
		return nil, repository.ErrTripNotFound
	}
	return trip.Clone(), nil
}

// UpdateStatus is a compare-and-set on the stored status. Only the status and
// lifecycle timestamps are written; passenger and driver are immutable.
func (r *TripRepository) UpdateStatus(ctx context.Context, trip *entities.Trip, expected entities.TripStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	stored, exists := r.trips[trip.ID]
	if !exists {
		return repository.ErrTripNotFound
	}
	if stored.Status != expected {
		return repository.ErrStatusConflict
	}
	next := stored.Clone()
	upd := trip.Clone()
	next.Status = upd.Status
	next.StartTime = upd.StartTime
	next.EndTime = upd.EndTime
	next.UpdatedAt = upd.UpdatedAt
	r.trips[trip.ID] = next
	return nil
}

func (r *TripRepository) List(ctx context.Context) ([]*entities.Trip, error) {
	return r.filter(ctx, func(*entities.Trip) bool { return true })
}

// ListByDriverID returns all trips for a given driver.
// This is an O(n) scan. ActiveCountsByDriver does the same scan once for all drivers.
func (r *TripRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Trip, error) {
	return r.filter(ctx, func(t *entities.Trip) bool { return t.DriverID == driverID })
}

func (r *TripRepository) CountActiveByDriverID(ctx context.Context, driverID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.trips {
		if t.DriverID == driverID && t.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *TripRepository) ActiveCountsByDriver(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, t := range r.trips {
		if t.DriverID != "" && t.Status.IsActive() {
			counts[t.DriverID]++
		}
	}
	return counts, nil
}

// filter returns matching trips, oldest request first.
func (r *TripRepository) filter(ctx context.Context, keep func(*entities.Trip) bool) ([]*entities.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Trip
	for _, t := range r.trips {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
