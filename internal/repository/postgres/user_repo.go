package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

const userColumns = `id, username, email, first_name, last_name,
	is_driver, is_passenger, is_available, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entities.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.IsDriver, u.IsPassenger, u.IsAvailable, u.CreatedAt, u.UpdatedAt,
	)
	return mapError(err, nil)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, repository.ErrUserNotFound)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entities.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5,
		    is_driver = $6, is_passenger = $7, is_available = $8, updated_at = $9
		WHERE id = $1`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.IsDriver, u.IsPassenger, u.IsAvailable, u.UpdatedAt,
	)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListDrivers(ctx context.Context) ([]*entities.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE is_driver ORDER BY id`)
}

func (r *UserRepository) ListAvailableDrivers(ctx context.Context) ([]*entities.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE is_driver AND is_available ORDER BY id`)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]*entities.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.User, error) {
		return scanUser(row)
	})
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.IsDriver, &u.IsPassenger, &u.IsAvailable, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
