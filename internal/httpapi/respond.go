package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/aydjay12/RentUp-sub001/internal/auth"
	cartrepo "github.com/aydjay12/RentUp-sub001/internal/cart/repository"
	cartsvc "github.com/aydjay12/RentUp-sub001/internal/cart/service"
	checkoutrepo "github.com/aydjay12/RentUp-sub001/internal/checkout/repository"
	checkoutsvc "github.com/aydjay12/RentUp-sub001/internal/checkout/service"
	"github.com/aydjay12/RentUp-sub001/internal/coupon"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps domain sentinels onto the error taxonomy: bad
// input is 4xx with a stable code the client can match on, everything else
// is a 500 the client treats as transient.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		respondError(w, http.StatusBadRequest, "invalid_coupon", "invalid coupon code")
	case errors.Is(err, coupon.ErrCouponExpired):
		respondError(w, http.StatusBadRequest, "coupon_expired", "coupon expired")
	case errors.Is(err, checkoutsvc.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, checkoutsvc.ErrCartTooLarge):
		respondError(w, http.StatusBadRequest, "cart_too_large", "cart exceeds the checkout size limit")
	case errors.Is(err, checkoutrepo.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", "unknown checkout session")
	case errors.Is(err, cartsvc.ErrUnknownItem):
		respondError(w, http.StatusNotFound, "unknown_item", "unknown residence")
	case errors.Is(err, cartrepo.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not in cart")
	case errors.Is(err, auth.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "restore_failed", "restoration token expired")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
