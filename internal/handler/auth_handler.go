package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"auth-gateway/internal/middleware"
	"auth-gateway/internal/model"
	"auth-gateway/internal/service"
)

type AuthHandler struct {
	sessions *service.SessionService
}

func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	if strings.TrimSpace(payload.AzureToken) == "" {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "azureToken is required"})
		return
	}

	pair, err := h.sessions.Login(r.Context(), payload.AzureToken, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "refreshToken is required"})
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), payload.RefreshToken, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.sessions.Logout(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

// Validate echoes the identity already established by the auth middleware;
// it never touches the store.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, model.ValidateResponse{
		Authenticated: true,
		Email:         claims.Email,
		Name:          claims.DisplayName,
	})
}
