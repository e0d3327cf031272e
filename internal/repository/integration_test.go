//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/database"
	"auth-gateway/internal/model"
	"auth-gateway/internal/repository"
)

// The suite runs against a disposable Postgres pointed to by
// TEST_DATABASE_URL and wipes the auth tables before each test.
func setupDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{
		URL:               url,
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE refresh_tokens, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func createUser(t *testing.T, db *database.DB, externalID string) model.User {
	t.Helper()

	users := repository.NewUserRepository(db.Pool)
	u, err := users.Create(context.Background(), model.User{
		ExternalID:  externalID,
		Email:       externalID + "@example.com",
		DisplayName: "Integration User",
	})
	require.NoError(t, err)
	return u
}

func refreshRow(userID int64, token string, ttl time.Duration) model.RefreshToken {
	return model.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
}

func TestTokenRepository_InsertAndFindActive(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-insert")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-a", time.Hour)))

	rec, err := repo.FindActive(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rec.UserID)
	assert.False(t, rec.IsRevoked)

	_, err = repo.FindActive(ctx, "tok-unknown")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestTokenRepository_InsertDuplicateToken(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-dup")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-dup", time.Hour)))

	err := repo.Insert(ctx, refreshRow(user.ID, "tok-dup", time.Hour))
	assert.ErrorIs(t, err, model.ErrDuplicateToken)
}

func TestTokenRepository_RevokeHidesRow(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-revoke")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-r", time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "tok-r"))

	_, err := repo.FindActive(ctx, "tok-r")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	// Idempotent, also for tokens that never existed.
	assert.NoError(t, repo.Revoke(ctx, "tok-r"))
	assert.NoError(t, repo.Revoke(ctx, "tok-never"))
}

func TestTokenRepository_ExpiredRowInvisible(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-expired")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-old", -time.Minute)))

	_, err := repo.FindActive(ctx, "tok-old")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestTokenRepository_ReplaceActive(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-replace")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-1", time.Hour)))
	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-2", time.Hour)))

	require.NoError(t, repo.ReplaceActive(ctx, user.ID, refreshRow(user.ID, "tok-3", time.Hour)))

	for _, old := range []string{"tok-1", "tok-2"} {
		_, err := repo.FindActive(ctx, old)
		assert.ErrorIs(t, err, model.ErrTokenNotFound, old)
	}

	rec, err := repo.FindActive(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rec.UserID)
}

func TestTokenRepository_RotateSingleUse(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-rotate")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-used", time.Hour)))
	require.NoError(t, repo.Rotate(ctx, "tok-used", refreshRow(user.ID, "tok-next", time.Hour)))

	_, err := repo.FindActive(ctx, "tok-used")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	_, err = repo.FindActive(ctx, "tok-next")
	assert.NoError(t, err)

	// Replaying the consumed token must not mint another successor.
	err = repo.Rotate(ctx, "tok-used", refreshRow(user.ID, "tok-replay", time.Hour))
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	_, err = repo.FindActive(ctx, "tok-replay")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestTokenRepository_RotateConcurrent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-race")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-contended", time.Hour)))

	const workers = 8
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := refreshRow(user.ID, fmt.Sprintf("tok-winner-%d", i), time.Hour)
			results[i] = repo.Rotate(ctx, "tok-contended", next)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			_, findErr := repo.FindActive(ctx, fmt.Sprintf("tok-winner-%d", i))
			assert.NoError(t, findErr)
			continue
		}
		assert.ErrorIs(t, err, model.ErrTokenNotFound)
	}
	assert.Equal(t, 1, winners)
}

func TestTokenRepository_CountRecentForUser(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-count")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, fmt.Sprintf("tok-c%d", i), time.Hour)))
	}
	require.NoError(t, repo.RevokeAllForUser(ctx, user.ID))

	// Revoked rows still count: the creation history is what reflects
	// attempt frequency.
	count, err := repo.CountRecentForUser(ctx, user.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.CountRecentForUser(ctx, user.ID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTokenRepository_CleanExpired(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewTokenRepository(db.Pool)
	user := createUser(t, db, "ext-clean")

	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-gone", -time.Minute)))
	require.NoError(t, repo.Insert(ctx, refreshRow(user.ID, "tok-live", time.Hour)))

	removed, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindActive(ctx, "tok-live")
	assert.NoError(t, err)
}

func TestUserRepository_Lifecycle(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db.Pool)

	created := createUser(t, db, "ext-life")

	found, err := repo.FindByExternalID(ctx, "ext-life")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, repo.TouchLogin(ctx, created.ID, "renamed@example.com", "Renamed"))

	touched, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", touched.Email)
	assert.Equal(t, "Renamed", touched.DisplayName)
	assert.True(t, touched.LastLoginAt.After(created.LastLoginAt) || touched.LastLoginAt.Equal(created.LastLoginAt))

	_, err = repo.FindByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	assert.ErrorIs(t, repo.TouchLogin(ctx, created.ID+1000, "x@example.com", "X"), model.ErrUserNotFound)
}

func TestDocumentRepository_Search(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewDocumentRepository(db.Pool)
	user := createUser(t, db, "ext-docs")

	_, err := repo.Create(ctx, model.Document{
		Title: "Rotation Policy", Content: "Refresh tokens are single use.", Category: "Security", UserID: user.ID,
	})
	require.NoError(t, err)

	docs, err := repo.List(ctx, "rotation")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Rotation Policy", docs[0].Title)

	docs, err = repo.List(ctx, "no-such-term")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
