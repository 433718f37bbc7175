package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// WireItem is a cart line as it crosses the wire. Prices always come from
// the server.
type WireItem struct {
	ItemID    string  `json:"item_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type CartPayload struct {
	Items []WireItem `json:"items"`
}

type Coupon struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Description        string          `json:"description,omitempty"`
}

type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

type CompletionResult struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

type RestoredSession struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type FavoritesPayload struct {
	Items []string `json:"items"`
}

type apiResponse struct {
	status int
	body   []byte
}

// API is the typed HTTP client for the storefront endpoints. A circuit
// breaker guards against hammering a dead backend; only transport failures
// count against it, an HTTP response of any status is a completed round
// trip.
type API struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*apiResponse]

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string) *API {
	settings := gobreaker.Settings{
		Name:    "rentup-api",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &API{
		base:    baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*apiResponse](settings),
	}
}

// SetToken installs the bearer token used on subsequent calls.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// HasToken reports whether an authenticated context is currently held.
func (a *API) HasToken() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != ""
}

func (a *API) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.mu.RLock()
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	a.mu.RUnlock()

	resp, err := a.breaker.Execute(func() (*apiResponse, error) {
		httpResp, err := a.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()
		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		return &apiResponse{status: httpResp.StatusCode, body: data}, nil
	})
	if err != nil {
		return &TransientError{Err: err}
	}

	if err := classify(resp); err != nil {
		return err
	}

	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func classify(resp *apiResponse) error {
	switch {
	case resp.status < 400:
		return nil
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		return ErrUnauthenticated
	case resp.status < 500:
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.Unmarshal(resp.body, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.status)
		}
		return &ValidationError{Code: body.Code, Reason: body.Error}
	default:
		return &TransientError{Err: fmt.Errorf("server returned %d", resp.status)}
	}
}

func (a *API) FetchCart(ctx context.Context) (*CartPayload, error) {
	var payload CartPayload
	if err := a.do(ctx, http.MethodGet, "/cart", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (a *API) ToggleCartItem(ctx context.Context, itemID string) error {
	return a.do(ctx, http.MethodPost, "/cart/toggle/"+itemID, nil, nil)
}

func (a *API) AddCartItem(ctx context.Context, itemID string, quantity int) (*WireItem, error) {
	var item WireItem
	body := map[string]int{"quantity": quantity}
	if err := a.do(ctx, http.MethodPost, "/cart/add/"+itemID, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) UpdateCartQuantity(ctx context.Context, itemID string, quantity int) (*WireItem, error) {
	var item WireItem
	body := map[string]int{"quantity": quantity}
	if err := a.do(ctx, http.MethodPut, "/cart/"+itemID, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) RemoveCartItem(ctx context.Context, itemID string) error {
	return a.do(ctx, http.MethodDelete, "/cart/remove/"+itemID, nil, nil)
}

func (a *API) ClearCart(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/cart/clear", nil, nil)
}

func (a *API) ListCoupons(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	if err := a.do(ctx, http.MethodGet, "/coupons", nil, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (a *API) ValidateCoupon(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	body := map[string]string{"code": code}
	if err := a.do(ctx, http.MethodPost, "/coupons/validate", body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

type createSessionBody struct {
	LineItems  []WireItem `json:"lineItems"`
	CouponCode string     `json:"couponCode,omitempty"`
}

func (a *API) CreateCheckoutSession(ctx context.Context, items []WireItem, couponCode string) (*CheckoutSession, error) {
	var session CheckoutSession
	body := createSessionBody{LineItems: items, CouponCode: couponCode}
	if err := a.do(ctx, http.MethodPost, "/payments/create-session", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (a *API) CompleteCheckout(ctx context.Context, sessionID string) (*CompletionResult, error) {
	var result CompletionResult
	body := map[string]string{"sessionId": sessionID}
	if err := a.do(ctx, http.MethodPost, "/payments/complete", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RestoreSession exchanges a restoration token and installs the returned
// bearer token.
func (a *API) RestoreSession(ctx context.Context, authToken string) (*RestoredSession, error) {
	var restored RestoredSession
	body := map[string]string{"auth_token": authToken}
	if err := a.do(ctx, http.MethodPost, "/auth/restore-session", body, &restored); err != nil {
		return nil, err
	}
	a.SetToken(restored.Token)
	return &restored, nil
}

func (a *API) ToggleFavorite(ctx context.Context, itemID string) ([]string, error) {
	var payload FavoritesPayload
	if err := a.do(ctx, http.MethodPost, "/favorites/toggle/"+itemID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (a *API) FetchFavorites(ctx context.Context) ([]string, error) {
	var payload FavoritesPayload
	if err := a.do(ctx, http.MethodGet, "/favorites", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}
