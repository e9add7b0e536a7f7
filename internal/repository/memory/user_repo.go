package memory

import (
	"context"
	"sort"
	"sync"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

// UserRepository stores users in memory. Values are copied on the way in and
// on the way out so callers never share state with the store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*entities.User),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return repository.ErrUserNotFound
	}
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *UserRepository) ListDrivers(ctx context.Context) ([]*entities.User, error) {
	return r.filter(ctx, func(u *entities.User) bool { return u.IsDriver })
}

func (r *UserRepository) ListAvailableDrivers(ctx context.Context) ([]*entities.User, error) {
	return r.filter(ctx, (*entities.User).IsEligibleDriver)
}

// filter returns matching users ordered by ID. Map iteration order is random
// in Go, so sorting here keeps list endpoints stable between calls.
func (r *UserRepository) filter(ctx context.Context, keep func(*entities.User) bool) ([]*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.User
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
