package coupon

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon covers unknown codes. Lookups are case-sensitive:
	// "save10" is not "SAVE10".
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a known code is outside its window.
	ErrCouponExpired = errors.New("coupon expired")
)

// Coupon is immutable reference data. Carts reference coupons by code; they
// never own or mutate them.
type Coupon struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Description        string          `json:"description,omitempty"`
	ValidFrom          *time.Time      `json:"-"`
	ValidUntil         *time.Time      `json:"-"`
}

func (c *Coupon) activeAt(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}
