package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// SessionAuthority mints bearer sessions and resolves restoration tokens.
type SessionAuthority interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	ExchangeRestorationToken(ctx context.Context, token string) (string, error)
}

type AuthHandler struct {
	sessions SessionAuthority
	timeout  time.Duration
}

func NewAuthHandler(sessions SessionAuthority, timeout time.Duration) *AuthHandler {
	return &AuthHandler{sessions: sessions, timeout: timeout}
}

type RestoreSessionRequestDTO struct {
	AuthToken string `json:"auth_token"`
}

type RestoreSessionResponseDTO struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// RestoreSession exchanges a restoration token for a fresh bearer session.
// The exchange is idempotent while the token lives: a reloaded return page
// exchanging the same token gets the same identity back.
func (h *AuthHandler) RestoreSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RestoreSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AuthToken == "" {
		respondError(w, http.StatusBadRequest, "missing_auth_token", "auth_token is required")
		return
	}

	userID, err := h.sessions.ExchangeRestorationToken(ctx, req.AuthToken)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.sessions.CreateSession(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RestoreSessionResponseDTO{Token: token, UserID: userID})
}
