package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"auth-gateway/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the service error taxonomy onto the documented statuses.
// Refresh-token failures share one message regardless of cause; internal
// detail goes to the log, never to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, model.ErrInvalidExternalToken):
		status = http.StatusUnauthorized
		message = "Invalid Azure token"
	case errors.Is(err, model.ErrRateLimited):
		status = http.StatusTooManyRequests
		message = "Too many login attempts. Please wait a moment."
	case errors.Is(err, model.ErrInvalidRefreshToken):
		status = http.StatusUnauthorized
		message = "Invalid refresh token"
	case errors.Is(err, model.ErrInvalidOrExpiredRefreshToken):
		status = http.StatusUnauthorized
		message = "Invalid or expired refresh token"
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "Authentication required"
	case errors.Is(err, model.ErrDocumentNotFound):
		status = http.StatusNotFound
		message = "Document not found"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		message = "Invalid input"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorResponse{Error: message})
}
