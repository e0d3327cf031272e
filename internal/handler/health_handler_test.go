package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/model"
)

func TestHealthEndpoint(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		server := newTestServer(t)

		resp := getJSON(t, server.URL+"/health", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[model.MessageResponse](t, resp)
		assert.Equal(t, "ok", body.Message)
	})

	t.Run("database down", func(t *testing.T) {
		server := newTestServerWithPinger(t, &stubPinger{err: errors.New("connection refused")})

		resp := getJSON(t, server.URL+"/health", "")
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeBody[model.ErrorResponse](t, resp)
		assert.Equal(t, "Database unavailable", body.Error)
	})
}
