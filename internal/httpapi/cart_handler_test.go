package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aydjay12/RentUp-sub001/internal/cart/domain"
	"github.com/go-chi/chi/v5"
)

type cartServiceMock struct {
	cart *domain.Cart
	line *domain.LineItem
	err  error
}

func (m cartServiceMock) GetCart(context.Context, string) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m cartServiceMock) Toggle(context.Context, string, string) (bool, error) {
	return true, m.err
}

func (m cartServiceMock) AddItem(context.Context, string, string, int) (*domain.LineItem, error) {
	return m.line, m.err
}

func (m cartServiceMock) UpdateQuantity(context.Context, string, string, int) (*domain.LineItem, error) {
	return m.line, m.err
}

func (m cartServiceMock) RemoveItem(context.Context, string, string) error { return m.err }
func (m cartServiceMock) ClearCart(context.Context, string) error          { return m.err }

func authedRequest(method, target string, body []byte) *http.Request {
	var request *http.Request
	if body != nil {
		request = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(request.Context(), userIDKey, "user1")
	return request.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetCart_Success(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{
		cart: &domain.Cart{
			UserID: "user1",
			Items:  []domain.LineItem{{ItemID: "r1", UnitPrice: 500, Quantity: 1}},
		},
	}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.GetCart(recorder, authedRequest("GET", "/cart", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var response domain.Cart
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Items) != 1 || response.Items[0].UnitPrice != 500 {
		t.Errorf("unexpected cart payload: %+v", response)
	}
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.GetCart(recorder, httptest.NewRequest("GET", "/cart", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "unauthorized" {
		t.Errorf("expected code 'unauthorized', got %q", response.Code)
	}
}

func TestToggle_ReturnsMembership(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(authedRequest("POST", "/cart/toggle/r1", nil), "itemId", "r1")
	handler.Toggle(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var response ToggleResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.InCart {
		t.Error("expected in_cart true")
	}
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{
		line: &domain.LineItem{ItemID: "r1", UnitPrice: 500, Quantity: 1},
	}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(authedRequest("POST", "/cart/add/r1", nil), "itemId", "r1")
	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body)
	}
}

func TestAddItem_RejectsBadQuantity(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(authedRequest("POST", "/cart/add/r1", []byte(`{"quantity": 0}`)), "itemId", "r1")
	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestUpdateQuantity_RemovalRespondsNoContent(t *testing.T) {
	// Quantity below one removes the line; the service signals it with a
	// nil line.
	handler := NewCartHandler(cartServiceMock{line: nil}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(authedRequest("PUT", "/cart/r1", []byte(`{"quantity": 0}`)), "itemId", "r1")
	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
}

func TestGetCart_ServiceErrorIsInternal(t *testing.T) {
	handler := NewCartHandler(cartServiceMock{err: errors.New("mongo down")}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.GetCart(recorder, authedRequest("GET", "/cart", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
}
