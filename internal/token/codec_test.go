package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/model"
)

func testUser() model.User {
	return model.User{
		ID:          7,
		ExternalID:  "ext-7",
		Email:       "seven@example.com",
		DisplayName: "Seven",
	}
}

func newTestCodec() *Codec {
	return NewCodec("test-secret", "auth-gateway", "auth-gateway", 30*time.Minute, 168*time.Hour)
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	codec := newTestCodec()

	signed, err := codec.IssueAccess(testUser())
	require.NoError(t, err)

	claims, err := codec.ValidateAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "seven@example.com", claims.Email)
	assert.Equal(t, "Seven", claims.DisplayName)
	assert.Equal(t, "ext-7", claims.ExternalID)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.NotEmpty(t, claims.TokenID)
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	codec := newTestCodec()

	signed, expiresAt, err := codec.IssueRefresh(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(codec.RefreshTTL()), expiresAt, time.Minute)

	subject, err := codec.ParseRefreshSubject(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), subject)
}

func TestCodec_TypeDiscriminator(t *testing.T) {
	codec := newTestCodec()

	access, err := codec.IssueAccess(testUser())
	require.NoError(t, err)
	refresh, _, err := codec.IssueRefresh(testUser())
	require.NoError(t, err)

	// A refresh token must not authorize API calls, and an access token
	// must not drive a rotation.
	_, err = codec.ValidateAccess(refresh)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = codec.ParseRefreshSubject(access)
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
}

func TestCodec_RejectsMalformed(t *testing.T) {
	codec := newTestCodec()

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.ValidateAccess(tokenString)
		assert.ErrorIs(t, err, model.ErrUnauthorized)

		_, err = codec.ParseRefreshSubject(tokenString)
		assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
	}
}

func TestCodec_RejectsForeignSignature(t *testing.T) {
	codec := newTestCodec()
	other := NewCodec("other-secret", "auth-gateway", "auth-gateway", 30*time.Minute, 168*time.Hour)

	signed, err := other.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = codec.ValidateAccess(signed)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestCodec_RejectsExpired(t *testing.T) {
	expired := NewCodec("test-secret", "auth-gateway", "auth-gateway", -time.Minute, -time.Minute)

	signed, err := expired.IssueAccess(testUser())
	require.NoError(t, err)

	codec := newTestCodec()
	_, err = codec.ValidateAccess(signed)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
