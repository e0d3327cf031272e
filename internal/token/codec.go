// Package token issues and parses the signed access and refresh tokens.
//
// The signature binds subject, token type and time window, but for refresh
// tokens the persisted store row stays the source of truth: a refresh token
// whose signature still verifies is unusable once its row is revoked.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-gateway/internal/model"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, issuer string, audience string, accessTTL time.Duration, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccess mints a short-lived access token carrying the user's profile.
func (c *Codec) IssueAccess(user model.User) (string, error) {
	now := time.Now().UTC()

	return c.sign(jwt.MapClaims{
		"sub":         strconv.FormatInt(user.ID, 10),
		"email":       user.Email,
		"name":        user.DisplayName,
		"external_id": user.ExternalID,
		"token_type":  TypeAccess,
		"jti":         uuid.NewString(),
		"iat":         now.Unix(),
		"nbf":         now.Unix(),
		"exp":         now.Add(c.accessTTL).Unix(),
		"iss":         c.issuer,
		"aud":         c.audience,
	})
}

// IssueRefresh mints a refresh token and returns its absolute expiry, which
// the caller persists on the store row.
func (c *Codec) IssueRefresh(user model.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(c.refreshTTL)

	signed, err := c.sign(jwt.MapClaims{
		"sub":        strconv.FormatInt(user.ID, 10),
		"token_type": TypeRefresh,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
		"exp":        expiresAt.Unix(),
		"iss":        c.issuer,
		"aud":        c.audience,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseRefreshSubject extracts the claimed subject from a refresh token after
// verifying the signature and type. It does not authorize by itself; the
// store's revocation and expiry check decides whether the token is usable.
func (c *Codec) ParseRefreshSubject(tokenString string) (int64, error) {
	claims, err := c.parse(tokenString, TypeRefresh)
	if err != nil {
		return 0, model.ErrInvalidRefreshToken
	}

	return claims.UserID, nil
}

// ValidateAccess verifies an access token and returns its claims. Used at the
// API boundary by the auth middleware.
func (c *Codec) ValidateAccess(tokenString string) (*model.AuthClaims, error) {
	claims, err := c.parse(tokenString, TypeAccess)
	if err != nil {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

func (c *Codec) sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (c *Codec) parse(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims shape")
	}

	typ, _ := claimsMap["token_type"].(string)
	if typ != expectedType {
		return nil, fmt.Errorf("unexpected token type %q", typ)
	}

	sub, _ := claimsMap["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid token subject")
	}

	claims := &model.AuthClaims{UserID: userID, Type: typ}
	claims.Email, _ = claimsMap["email"].(string)
	claims.DisplayName, _ = claimsMap["name"].(string)
	claims.ExternalID, _ = claimsMap["external_id"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	return claims, nil
}
