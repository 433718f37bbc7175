package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkoutBackend is an httptest handler tracking calls per endpoint.
type checkoutBackend struct {
	mu        sync.Mutex
	completes int
	restores  int
	clears    int
	creates   int

	cartItems        []WireItem
	completionStatus string
	lastCouponCode   string
}

func (b *checkoutBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/cart":
			writeCart(w, b.cartItems)
		case r.URL.Path == "/payments/create-session":
			b.creates++
			var body struct {
				CouponCode string `json:"couponCode"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			b.lastCouponCode = body.CouponCode
			json.NewEncoder(w).Encode(CheckoutSession{
				SessionID:   "cs_test",
				RedirectURL: "https://pay.example/cs_test",
			})
		case r.URL.Path == "/payments/complete":
			b.completes++
			status := b.completionStatus
			if status == "" {
				status = "completed"
			}
			json.NewEncoder(w).Encode(CompletionResult{SessionID: "cs_test", Status: status})
		case r.URL.Path == "/auth/restore-session":
			b.restores++
			json.NewEncoder(w).Encode(RestoredSession{Token: "fresh-token", UserID: "user-1"})
		case r.Method == http.MethodDelete && r.URL.Path == "/cart/clear":
			b.clears++
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}
}

func newCheckoutFixture(t *testing.T, backend *checkoutBackend) (*Store, func()) {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	store := NewStore(srv.URL, Config{MaxCartItems: 8})
	return store, srv.Close
}

func TestCheckoutBegin_EmptyCartNoNetworkCall(t *testing.T) {
	backend := &checkoutBackend{}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	_, err := store.Checkout.Begin(context.Background())

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, backend.creates, "guard fires before any request")
}

func TestCheckoutBegin_OverCapNoNetworkCall(t *testing.T) {
	items := make([]WireItem, 9)
	for i := range items {
		items[i] = WireItem{ItemID: string(rune('a' + i)), UnitPrice: 10, Quantity: 1}
	}
	backend := &checkoutBackend{cartItems: items}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	require.NoError(t, store.Cart.Fetch(context.Background()))
	_, err := store.Checkout.Begin(context.Background())

	require.ErrorIs(t, err, ErrCartTooLarge)
	assert.Equal(t, 0, backend.creates)
}

func TestCheckoutBegin_SendsAppliedCoupon(t *testing.T) {
	backend := &checkoutBackend{cartItems: []WireItem{{ItemID: "res-1", UnitPrice: 100, Quantity: 1}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/coupons/validate" {
			json.NewEncoder(w).Encode(Coupon{Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10)})
			return
		}
		backend.handler(t)(w, r)
	}))
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	ctx := context.Background()
	require.NoError(t, store.Cart.Fetch(ctx))
	require.NoError(t, store.Coupons.Apply(ctx, "SAVE10"))

	session, err := store.Checkout.Begin(ctx)

	require.NoError(t, err)
	assert.Equal(t, "cs_test", session.SessionID)
	assert.Equal(t, "SAVE10", backend.lastCouponCode)
	assert.Equal(t, PhaseSessionCreated, store.Checkout.Phase())

	redirect, err := store.Checkout.Redirect()
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_test", redirect)
	assert.Equal(t, PhaseRedirected, store.Checkout.Phase())
}

func TestHandleReturn_MissingSessionIDIsTerminal(t *testing.T) {
	backend := &checkoutBackend{}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	phase, err := store.Checkout.HandleReturn(context.Background(), "https://rentup.example/payment-success")

	require.ErrorIs(t, err, ErrMissingSessionID)
	assert.Equal(t, PhaseFailed, phase)
	assert.Equal(t, 0, backend.completes, "nothing to reconcile, no call made")
}

func TestHandleReturn_CompletesOnceAndClearsCart(t *testing.T) {
	backend := &checkoutBackend{cartItems: []WireItem{{ItemID: "res-1", UnitPrice: 100, Quantity: 1}}}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	ctx := context.Background()
	require.NoError(t, store.Cart.Fetch(ctx))
	_, err := store.Checkout.Begin(ctx)
	require.NoError(t, err)

	returnURL := "https://rentup.example/payment-success?session_id=cs_test"
	phase, err := store.Checkout.HandleReturn(ctx, returnURL)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, phase)
	assert.Equal(t, 1, backend.completes)
	assert.Equal(t, 1, backend.clears, "cart cleared exactly once after completion")

	// A second fire of the landing-page handler must not call again.
	phase, err = store.Checkout.HandleReturn(ctx, returnURL)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, phase)
	assert.Equal(t, 1, backend.completes)
	assert.Equal(t, 1, backend.clears)
}

func TestHandleReturn_AlreadyProcessedDoesNotClear(t *testing.T) {
	backend := &checkoutBackend{completionStatus: "already_processed"}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	phase, err := store.Checkout.HandleReturn(context.Background(), "https://rentup.example/payment-success?session_id=cs_test")

	require.NoError(t, err)
	assert.Equal(t, PhaseAlreadyProcessed, phase)
	assert.Equal(t, 1, backend.completes)
	assert.Equal(t, 0, backend.clears, "someone else's completion owns the clear")
}

func TestHandleReturn_RestoresLostSession(t *testing.T) {
	backend := &checkoutBackend{}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	require.False(t, store.API.HasToken(), "cookie lost on cross-site return")

	returnURL := "https://rentup.example/payment-success?session_id=cs_test&auth_token=rst_abc"
	phase, err := store.Checkout.HandleReturn(context.Background(), returnURL)

	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, phase)
	assert.Equal(t, 1, backend.restores)
	assert.True(t, store.API.HasToken(), "restored token installed for the session")
}

func TestHandleReturn_SkipsRestoreWhenAuthenticated(t *testing.T) {
	backend := &checkoutBackend{}
	store, closeSrv := newCheckoutFixture(t, backend)
	defer closeSrv()

	store.API.SetToken("still-here")
	returnURL := "https://rentup.example/payment-success?session_id=cs_test&auth_token=rst_abc"
	_, err := store.Checkout.HandleReturn(context.Background(), returnURL)

	require.NoError(t, err)
	assert.Equal(t, 0, backend.restores, "existing session wins over the URL token")
}

func TestHandleReturn_RestoreFailureDoesNotBlockCompletion(t *testing.T) {
	backend := &checkoutBackend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/restore-session" {
			http.Error(w, `{"error":"restoration token expired","code":"token_expired"}`, http.StatusUnauthorized)
			return
		}
		backend.handler(t)(w, r)
	}))
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	returnURL := "https://rentup.example/payment-success?session_id=cs_test&auth_token=rst_dead"
	phase, err := store.Checkout.HandleReturn(context.Background(), returnURL)

	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, phase)
	assert.Equal(t, 1, backend.completes)
}

func TestHandleReturn_FailureDoesNotAutoRetry(t *testing.T) {
	backend := &checkoutBackend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/payments/complete" {
			backend.mu.Lock()
			backend.completes++
			backend.mu.Unlock()
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		backend.handler(t)(w, r)
	}))
	defer srv.Close()

	store := NewStore(srv.URL, Config{})
	returnURL := "https://rentup.example/payment-success?session_id=cs_test"
	phase, err := store.Checkout.HandleReturn(context.Background(), returnURL)

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, PhaseFailed, phase)

	// The one-shot guard holds even after failure; a retry needs a fresh
	// orchestrator and the server dedupes it there.
	phase, _ = store.Checkout.HandleReturn(context.Background(), returnURL)
	assert.Equal(t, PhaseFailed, phase)
	assert.Equal(t, 1, backend.completes)
}
