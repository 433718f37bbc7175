package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	cartdomain "github.com/aydjay12/RentUp-sub001/internal/cart/domain"
	checkoutdomain "github.com/aydjay12/RentUp-sub001/internal/checkout/domain"
	checkoutsvc "github.com/aydjay12/RentUp-sub001/internal/checkout/service"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, userID string, items []checkoutdomain.SnapshotItem, couponCode string) (*checkoutsvc.CreateSessionResult, error)
	Complete(ctx context.Context, sessionID string) (checkoutsvc.CompletionOutcome, error)
}

type CheckoutHandler struct {
	svc     CheckoutService
	cart    CartService
	timeout time.Duration
}

func NewCheckoutHandler(svc CheckoutService, cart CartService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, cart: cart, timeout: timeout}
}

type CreateSessionRequestDTO struct {
	LineItems  []cartdomain.LineItem `json:"lineItems"`
	CouponCode string                `json:"couponCode,omitempty"`
}

type CreateSessionResponseDTO struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

type CompleteRequestDTO struct {
	SessionID string `json:"sessionId"`
}

type CompleteResponseDTO struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CreateSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// The client sends its snapshot for the wire contract, but the ledger
	// only ever trusts the server-held cart and its captured prices.
	cart, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	items := make([]checkoutdomain.SnapshotItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = checkoutdomain.SnapshotItem{
			ItemID:    line.ItemID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	res, err := h.svc.CreateSession(ctx, userID, items, req.CouponCode)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateSessionResponseDTO{
		SessionID:   res.SessionID,
		RedirectURL: res.RedirectURL,
	})
}

func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CompleteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session id is required")
		return
	}

	outcome, err := h.svc.Complete(ctx, req.SessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CompleteResponseDTO{
		SessionID: req.SessionID,
		Status:    string(outcome),
	})
}
