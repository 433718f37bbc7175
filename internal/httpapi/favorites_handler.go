package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type FavoritesService interface {
	Toggle(ctx context.Context, userID, itemID string) ([]string, error)
	List(ctx context.Context, userID string) ([]string, error)
}

type FavoritesHandler struct {
	svc     FavoritesService
	timeout time.Duration
}

func NewFavoritesHandler(svc FavoritesService, timeout time.Duration) *FavoritesHandler {
	return &FavoritesHandler{svc: svc, timeout: timeout}
}

type FavoritesResponseDTO struct {
	Items []string `json:"items"`
}

func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item id is required")
		return
	}

	items, err := h.svc.Toggle(ctx, userID, itemID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}

	respondJSON(w, http.StatusOK, FavoritesResponseDTO{Items: items})
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	items, err := h.svc.List(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}

	respondJSON(w, http.StatusOK, FavoritesResponseDTO{Items: items})
}
