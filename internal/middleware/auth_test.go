package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/model"
)

type stubValidator struct {
	claims *model.AuthClaims
	err    error
}

func (v *stubValidator) ValidateAccess(string) (*model.AuthClaims, error) {
	return v.claims, v.err
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	claims := &model.AuthClaims{UserID: 1, Email: "user@example.com", DisplayName: "User"}

	t.Run("missing header", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/validate", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{err: model.ErrUnauthorized})
		req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token reaches handler with claims", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		var seen *model.AuthClaims
		h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = ClaimsFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(1), seen.UserID)
		assert.Equal(t, "user@example.com", seen.Email)
	})
}
