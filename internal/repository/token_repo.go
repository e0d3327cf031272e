package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-gateway/internal/model"
)

const uniqueViolationCode = "23505"

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindActive returns the row for the exact token string only while it is
// usable. Absent, revoked and expired rows are indistinguishable to callers.
func (r *TokenRepository) FindActive(ctx context.Context, token string) (model.RefreshToken, error) {
	var rec model.RefreshToken
	err := r.pool.QueryRow(ctx,
		`SELECT id, token, user_id, expires_at, is_revoked, created_at, COALESCE(device_info, '')
		 FROM refresh_tokens
		 WHERE token = $1 AND is_revoked = false AND expires_at > now()`, token).
		Scan(&rec.ID, &rec.Token, &rec.UserID, &rec.ExpiresAt, &rec.IsRevoked, &rec.CreatedAt, &rec.DeviceInfo)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("find active refresh token: %w", err)
	}
	return rec, nil
}

func (r *TokenRepository) Insert(ctx context.Context, rec model.RefreshToken) error {
	return insertToken(ctx, r.pool, rec)
}

// Revoke marks a single row revoked. Idempotent; revoking an unknown or
// already-revoked token is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = true WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1 AND is_revoked = false`,
		userID)
	if err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

// CountRecentForUser counts refresh rows created since the cutoff, revoked
// ones included: every login run revokes its predecessors, so only the
// creation history reflects attempt frequency.
func (r *TokenRepository) CountRecentForUser(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1 AND created_at > $2`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent logins: %w", err)
	}
	return count, nil
}

// ReplaceActive revokes every active row for the user and inserts the new one
// in a single transaction, so a login never leaves partial state visible.
func (r *TokenRepository) ReplaceActive(ctx context.Context, userID int64, rec model.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1 AND is_revoked = false`,
		userID); err != nil {
		return fmt.Errorf("revoke active tokens: %w", err)
	}

	if err := insertToken(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace transaction: %w", err)
	}
	return nil
}

// Rotate revokes the used token and inserts its successor in one transaction.
// The conditional UPDATE is the serialization point: of two concurrent
// rotations of the same token exactly one affects a row, the other observes
// the token already revoked and gets ErrTokenNotFound.
func (r *TokenRepository) Rotate(ctx context.Context, usedToken string, next model.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotate transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = true
		 WHERE token = $1 AND is_revoked = false AND expires_at > now()`,
		usedToken)
	if err != nil {
		return fmt.Errorf("revoke used token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}

	if err := insertToken(ctx, tx, next); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotate transaction: %w", err)
	}
	return nil
}

// CleanExpired prunes rows whose expiry has passed; revoked-but-unexpired
// rows stay for audit.
func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// A token collision cannot happen under correct signing (each token carries a
// fresh jti); if it does, surface it as the fatal ErrDuplicateToken.
func insertToken(ctx context.Context, db execer, rec model.RefreshToken) error {
	_, err := db.Exec(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, is_revoked, created_at, device_info)
		 VALUES ($1, $2, $3, false, $4, NULLIF($5, ''))`,
		rec.Token, rec.UserID, rec.ExpiresAt, time.Now().UTC(), rec.DeviceInfo)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("insert refresh token: %w", model.ErrDuplicateToken)
	}
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}
