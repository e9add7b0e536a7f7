package memory

import (
	"context"
	"sort"
	"sync"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

// RatingRepository keeps ratings by ID with a secondary tripID index that
// enforces the one-rating-per-trip rule.
type RatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]*entities.Rating
	byTrip  map[string]string // tripID → ratingID
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{
		ratings: make(map[string]*entities.Rating),
		byTrip:  make(map[string]string),
	}
}

func (r *RatingRepository) Create(ctx context.Context, rating *entities.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := r.byTrip[rating.TripID]; exists {
		return repository.ErrDuplicate
	}
	if _, exists := r.ratings[rating.ID]; exists {
		return repository.ErrDuplicate
	}
	cp := *rating
	r.ratings[rating.ID] = &cp
	r.byTrip[rating.TripID] = rating.ID
	return nil
}

func (r *RatingRepository) GetByID(ctx context.Context, id string) (*entities.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rating, exists := r.ratings[id]
	if !exists {
		return nil, repository.ErrRatingNotFound
	}
	cp := *rating
	return &cp, nil
}

func (r *RatingRepository) GetByTripID(ctx context.Context, tripID string) (*entities.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byTrip[tripID]
	if !exists {
		return nil, repository.ErrRatingNotFound
	}
	cp := *r.ratings[id]
	return &cp, nil
}

// Update replaces score and comment. Trip and driver bindings are kept from
// the stored record.
func (r *RatingRepository) Update(ctx context.Context, rating *entities.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	stored, exists := r.ratings[rating.ID]
	if !exists {
		return repository.ErrRatingNotFound
	}
	cp := *stored
	cp.Score = rating.Score
	cp.Comment = rating.Comment
	cp.UpdatedAt = rating.UpdatedAt
	r.ratings[rating.ID] = &cp
	return nil
}

func (r *RatingRepository) List(ctx context.Context) ([]*entities.Rating, error) {
	return r.filter(ctx, func(*entities.Rating) bool { return true })
}

func (r *RatingRepository) ListByDriverID(ctx context.Context, driverID string) ([]*entities.Rating, error) {
	return r.filter(ctx, func(rt *entities.Rating) bool { return rt.DriverID == driverID })
}

func (r *RatingRepository) filter(ctx context.Context, keep func(*entities.Rating) bool) ([]*entities.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Rating
	for _, rt := range r.ratings {
		if keep(rt) {
			cp := *rt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
