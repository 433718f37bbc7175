package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aydjay12/RentUp-sub001/internal/coupon"
)

type CouponService interface {
	Validate(ctx context.Context, code string) (*coupon.Coupon, error)
	ListEligible(ctx context.Context) ([]coupon.Coupon, error)
}

type CouponHandler struct {
	svc     CouponService
	timeout time.Duration
}

func NewCouponHandler(svc CouponService, timeout time.Duration) *CouponHandler {
	return &CouponHandler{svc: svc, timeout: timeout}
}

type ValidateCouponRequestDTO struct {
	Code string `json:"code"`
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	coupons, err := h.svc.ListEligible(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if coupons == nil {
		coupons = []coupon.Coupon{}
	}

	respondJSON(w, http.StatusOK, coupons)
}

func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ValidateCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_coupon", "coupon code is required")
		return
	}

	c, err := h.svc.Validate(ctx, req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}
