package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	coupons map[string]*Coupon
}

func (m *mockRepository) GetByCode(_ context.Context, code string) (*Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return c, nil
}

func (m *mockRepository) ListActive(context.Context) ([]Coupon, error) {
	var out []Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func TestValidate_KnownCode(t *testing.T) {
	repo := &mockRepository{coupons: map[string]*Coupon{
		"SAVE10": {Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10)},
	}}
	svc := NewService(repo)

	c, err := svc.Validate(context.Background(), "SAVE10")

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	assert.True(t, c.DiscountPercentage.Equal(decimal.NewFromInt(10)))
}

func TestValidate_UnknownCode(t *testing.T) {
	svc := NewService(&mockRepository{coupons: map[string]*Coupon{}})

	_, err := svc.Validate(context.Background(), "NOPE")

	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidate_CaseSensitive(t *testing.T) {
	repo := &mockRepository{coupons: map[string]*Coupon{
		"SAVE10": {Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10)},
	}}
	svc := NewService(repo)

	_, err := svc.Validate(context.Background(), "save10")

	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidate_ExpiredCode(t *testing.T) {
	until := time.Now().Add(-time.Hour)
	repo := &mockRepository{coupons: map[string]*Coupon{
		"OLD": {Code: "OLD", DiscountPercentage: decimal.NewFromInt(5), ValidUntil: &until},
	}}
	svc := NewService(repo)

	_, err := svc.Validate(context.Background(), "OLD")

	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestValidate_NotYetValid(t *testing.T) {
	from := time.Now().Add(time.Hour)
	repo := &mockRepository{coupons: map[string]*Coupon{
		"SOON": {Code: "SOON", DiscountPercentage: decimal.NewFromInt(5), ValidFrom: &from},
	}}
	svc := NewService(repo)

	_, err := svc.Validate(context.Background(), "SOON")

	assert.ErrorIs(t, err, ErrCouponExpired)
}
