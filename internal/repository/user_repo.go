package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-gateway/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, external_id, email, display_name, created_at, last_login_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.ExternalID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, external_id, email, display_name, created_at, last_login_at
		 FROM users WHERE external_id = $1`, externalID).
		Scan(&u.ID, &u.ExternalID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by external id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastLoginAt = now

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (external_id, email, display_name, created_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		u.ExternalID, u.Email, u.DisplayName, u.CreatedAt, u.LastLoginAt).Scan(&u.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// TouchLogin refreshes the profile fields from the identity provider and
// stamps the login time.
func (r *UserRepository) TouchLogin(ctx context.Context, id int64, email string, displayName string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $2, display_name = $3, last_login_at = $4 WHERE id = $1`,
		id, email, displayName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
