package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-gateway/internal/identity"
	"auth-gateway/internal/model"
	"auth-gateway/internal/token"
)

// UserStore is the user half of the session store contract.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByExternalID(ctx context.Context, externalID string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	TouchLogin(ctx context.Context, id int64, email string, displayName string) error
}

// TokenStore is the refresh-token half of the session store contract. The
// compound operations (ReplaceActive, Rotate) must be atomic and serialized
// per affected row.
type TokenStore interface {
	FindActive(ctx context.Context, tokenString string) (model.RefreshToken, error)
	CountRecentForUser(ctx context.Context, userID int64, since time.Time) (int, error)
	ReplaceActive(ctx context.Context, userID int64, rec model.RefreshToken) error
	Rotate(ctx context.Context, usedToken string, next model.RefreshToken) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// SessionService orchestrates login, refresh and logout: it exchanges a
// verified external identity for a local token pair and enforces the
// single-active-chain, rotation and rate-limit policies on refresh tokens.
type SessionService struct {
	verifier   identity.Verifier
	codec      *token.Codec
	users      UserStore
	tokens     TokenStore
	rateWindow time.Duration
	rateMax    int
}

func NewSessionService(
	verifier identity.Verifier,
	codec *token.Codec,
	users UserStore,
	tokens TokenStore,
	rateWindow time.Duration,
	rateMax int,
) *SessionService {
	return &SessionService{
		verifier:   verifier,
		codec:      codec,
		users:      users,
		tokens:     tokens,
		rateWindow: rateWindow,
		rateMax:    rateMax,
	}
}

// Login exchanges an external identity-provider token for a local pair. A
// successful login revokes every refresh chain the user had, across all
// devices, before starting the new one.
func (s *SessionService) Login(ctx context.Context, externalToken string, deviceInfo string) (model.TokenPair, error) {
	ident, err := s.verifier.Verify(ctx, externalToken)
	if err != nil {
		if errors.Is(err, model.ErrInvalidExternalToken) {
			slog.Warn("login rejected: invalid external token")
			return model.TokenPair{}, model.ErrInvalidExternalToken
		}
		return model.TokenPair{}, fmt.Errorf("verify external token: %w", err)
	}

	user, err := s.users.FindByExternalID(ctx, ident.ID)
	switch {
	case err == nil:
		// Rate limiting is keyed on the existing user's token creation
		// history; a user unknown to the store cannot trip it on first
		// login. Accepted asymmetry, preserved deliberately.
		count, countErr := s.tokens.CountRecentForUser(ctx, user.ID, time.Now().UTC().Add(-s.rateWindow))
		if countErr != nil {
			return model.TokenPair{}, fmt.Errorf("count recent logins: %w", countErr)
		}
		if count >= s.rateMax {
			slog.Warn("login rate limited", "user_id", user.ID, "recent_logins", count)
			return model.TokenPair{}, model.ErrRateLimited
		}

		if touchErr := s.users.TouchLogin(ctx, user.ID, ident.Email, ident.DisplayName); touchErr != nil {
			return model.TokenPair{}, fmt.Errorf("touch login: %w", touchErr)
		}
		user.Email = ident.Email
		user.DisplayName = ident.DisplayName

	case errors.Is(err, model.ErrUserNotFound):
		user, err = s.users.Create(ctx, model.User{
			ExternalID:  ident.ID,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
		})
		if err != nil {
			return model.TokenPair{}, fmt.Errorf("create user: %w", err)
		}
		slog.Info("user created", "user_id", user.ID, "email", user.Email)

	default:
		return model.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	pair, rec, err := s.mintPair(user, deviceInfo)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.ReplaceActive(ctx, user.ID, rec); err != nil {
		return model.TokenPair{}, fmt.Errorf("replace active tokens: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Each token is single-use; presenting an already-rotated,
// revoked, expired or unknown token fails with one unified error so callers
// cannot probe server-side state.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, deviceInfo string) (model.TokenPair, error) {
	if _, err := s.codec.ParseRefreshSubject(refreshToken); err != nil {
		slog.Warn("refresh rejected: undecodable token")
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	rec, err := s.tokens.FindActive(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			slog.Warn("refresh rejected: token not active")
			return model.TokenPair{}, model.ErrInvalidOrExpiredRefreshToken
		}
		return model.TokenPair{}, fmt.Errorf("find active token: %w", err)
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, model.ErrInvalidOrExpiredRefreshToken
		}
		return model.TokenPair{}, fmt.Errorf("find token owner: %w", err)
	}

	pair, next, err := s.mintPair(user, deviceInfo)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Rotate(ctx, refreshToken, next); err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			// Lost a concurrent rotation race; the winner already
			// revoked this token.
			slog.Warn("refresh rejected: rotation race lost", "user_id", user.ID)
			return model.TokenPair{}, model.ErrInvalidOrExpiredRefreshToken
		}
		return model.TokenPair{}, fmt.Errorf("rotate token: %w", err)
	}

	slog.Info("token refreshed", "user_id", user.ID)
	return pair, nil
}

// Logout revokes every active refresh token for the user. Idempotent.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens on logout: %w", err)
	}

	slog.Info("user logged out", "user_id", userID)
	return nil
}

func (s *SessionService) mintPair(user model.User, deviceInfo string) (model.TokenPair, model.RefreshToken, error) {
	accessToken, err := s.codec.IssueAccess(user)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, expiresAt, err := s.codec.IssueRefresh(user)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue refresh token: %w", err)
	}

	pair := model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		UserEmail:    user.Email,
	}

	rec := model.RefreshToken{
		Token:      refreshToken,
		UserID:     user.ID,
		ExpiresAt:  expiresAt,
		DeviceInfo: deviceInfo,
	}

	return pair, rec, nil
}
