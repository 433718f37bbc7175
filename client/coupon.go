package client

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type cartRecomputer interface {
	Recompute()
}

// CouponManager tracks the single applied coupon. Apply is all-or-nothing:
// a failed validation leaves whatever was applied before untouched, and a
// successful one replaces code and percentage together so totals never see
// a half-swapped coupon.
type CouponManager struct {
	api  *API
	cart cartRecomputer

	mu      sync.Mutex
	applied *Coupon
}

func newCouponManager(api *API) *CouponManager {
	return &CouponManager{api: api}
}

// List returns the coupons the server currently advertises.
func (m *CouponManager) List(ctx context.Context) ([]Coupon, error) {
	return m.api.ListCoupons(ctx)
}

// Apply validates the code server-side and, on success, makes it the
// applied coupon and recomputes cart totals. On failure the previous
// coupon (or none) stays applied and the validation error is returned
// for display.
func (m *CouponManager) Apply(ctx context.Context, code string) error {
	coupon, err := m.api.ValidateCoupon(ctx, code)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.applied = coupon
	m.mu.Unlock()

	if m.cart != nil {
		m.cart.Recompute()
	}
	return nil
}

// Remove drops the applied coupon locally and recomputes. The server holds
// no applied-coupon state, so removing an already-absent coupon is a no-op.
func (m *CouponManager) Remove() {
	m.mu.Lock()
	m.applied = nil
	m.mu.Unlock()

	if m.cart != nil {
		m.cart.Recompute()
	}
}

// Applied returns a copy of the applied coupon, nil when none.
func (m *CouponManager) Applied() *Coupon {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied == nil {
		return nil
	}
	c := *m.applied
	return &c
}

// AppliedCode returns the applied coupon's code, empty when none.
func (m *CouponManager) AppliedCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied == nil {
		return ""
	}
	return m.applied.Code
}

func (m *CouponManager) appliedDiscount() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied == nil {
		return decimal.Zero
	}
	return m.applied.DiscountPercentage
}
