package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func couponServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/cart":
			writeCart(w, []WireItem{{ItemID: "res-1", UnitPrice: 100, Quantity: 1}})
		case r.URL.Path == "/coupons/validate":
			var body struct {
				Code string `json:"code"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			switch body.Code {
			case "SAVE10":
				json.NewEncoder(w).Encode(Coupon{Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10)})
			case "WELCOME20":
				json.NewEncoder(w).Encode(Coupon{Code: "WELCOME20", DiscountPercentage: decimal.NewFromInt(20)})
			default:
				http.Error(w, `{"error":"invalid or expired coupon","code":"invalid_coupon"}`, http.StatusUnprocessableEntity)
			}
		case r.URL.Path == "/coupons":
			json.NewEncoder(w).Encode([]Coupon{{Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10)}})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
}

func TestCouponApplyAndRemove_RecomputesTotals(t *testing.T) {
	srv := couponServer(t)
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	ctx := context.Background()
	require.NoError(t, store.Cart.Fetch(ctx))
	require.True(t, store.Cart.State().Totals.Total.Equal(decimal.NewFromInt(100)))

	require.NoError(t, store.Coupons.Apply(ctx, "SAVE10"))

	state := store.Cart.State()
	assert.True(t, state.Totals.Total.Equal(decimal.NewFromInt(90)), "got %s", state.Totals.Total)
	assert.True(t, state.Totals.Savings.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, state.AppliedCoupon)
	assert.Equal(t, "SAVE10", state.AppliedCoupon.Code)

	store.Coupons.Remove()
	state = store.Cart.State()
	assert.True(t, state.Totals.Total.Equal(decimal.NewFromInt(100)))
	assert.Nil(t, state.AppliedCoupon)

	store.Coupons.Remove() // removing nothing is fine
	assert.Nil(t, store.Cart.State().AppliedCoupon)
}

func TestCouponApply_FailureKeepsPrevious(t *testing.T) {
	srv := couponServer(t)
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	ctx := context.Background()
	require.NoError(t, store.Cart.Fetch(ctx))
	require.NoError(t, store.Coupons.Apply(ctx, "SAVE10"))

	err := store.Coupons.Apply(ctx, "BOGUS")

	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_coupon", verr.Code)

	state := store.Cart.State()
	require.NotNil(t, state.AppliedCoupon, "failed apply must not clear the working coupon")
	assert.Equal(t, "SAVE10", state.AppliedCoupon.Code)
	assert.True(t, state.Totals.Total.Equal(decimal.NewFromInt(90)))
}

func TestCouponApply_ReplacesAtomically(t *testing.T) {
	srv := couponServer(t)
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	ctx := context.Background()
	require.NoError(t, store.Cart.Fetch(ctx))
	require.NoError(t, store.Coupons.Apply(ctx, "SAVE10"))
	require.NoError(t, store.Coupons.Apply(ctx, "WELCOME20"))

	state := store.Cart.State()
	require.NotNil(t, state.AppliedCoupon)
	assert.Equal(t, "WELCOME20", state.AppliedCoupon.Code)
	assert.True(t, state.Totals.Total.Equal(decimal.NewFromInt(80)), "discounts never compound")
}

func TestCouponCodesAreCaseSensitive(t *testing.T) {
	srv := couponServer(t)
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	err := store.Coupons.Apply(context.Background(), strings.ToLower("SAVE10"))

	require.Error(t, err)
	assert.Nil(t, store.Coupons.Applied())
}
