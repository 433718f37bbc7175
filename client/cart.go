package client

import (
	"context"
	"errors"
	"sync"

	"github.com/aydjay12/RentUp-sub001/internal/pricing"
	"github.com/shopspring/decimal"
)

// Item is a cart line in the client cache.
type Item struct {
	ItemID    string
	UnitPrice float64
	Quantity  int
}

// CartState is a point-in-time copy of the cache plus derived totals.
type CartState struct {
	Items         []Item
	AppliedCoupon *Coupon
	Totals        pricing.Totals
}

type discountSource interface {
	Applied() *Coupon
	appliedDiscount() decimal.Decimal
}

// CartSynchronizer owns the client-side cart cache and keeps it consistent
// with the server. Membership changes (toggle) are pessimistic: nothing
// changes locally until the server acknowledged and the cart was refetched.
// Quantity edits patch locally from the mutation response instead of a full
// refetch. A per-item gate serializes mutations on the same item so two
// rapid toggles cannot interleave their round trips; different items are
// not ordered against each other.
type CartSynchronizer struct {
	api     *API
	coupons discountSource

	mu       sync.Mutex
	items    []Item
	totals   pricing.Totals
	fetchErr error
	inflight map[string]chan struct{}
}

func newCartSynchronizer(api *API) *CartSynchronizer {
	return &CartSynchronizer{
		api:      api,
		inflight: make(map[string]chan struct{}),
	}
}

// Fetch loads the authoritative cart, replacing the cache wholesale. A
// 401/403 is not an error: an anonymous visitor simply has no cart. Any
// other failure keeps the last cached items and records a retryable error.
func (s *CartSynchronizer) Fetch(ctx context.Context) error {
	payload, err := s.api.FetchCart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			s.items = nil
			s.fetchErr = nil
			s.recomputeLocked()
			return nil
		}
		s.fetchErr = err
		return err
	}

	s.items = make([]Item, len(payload.Items))
	for i, w := range payload.Items {
		s.items[i] = Item{ItemID: w.ItemID, UnitPrice: w.UnitPrice, Quantity: w.Quantity}
	}
	s.fetchErr = nil
	s.recomputeLocked()
	return nil
}

// FetchErr returns the last fetch failure, nil once a fetch succeeded (or
// only hit the expected unauthenticated case). Non-nil means the UI should
// offer a retry.
func (s *CartSynchronizer) FetchErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// Toggle flips cart membership for the item, waiting for the server's
// acknowledgement and then refetching the whole cart. No optimistic state
// is shown; Busy reports the in-flight marker for the acted-upon item.
func (s *CartSynchronizer) Toggle(ctx context.Context, itemID string) error {
	release := s.acquireItem(itemID)
	defer release()

	if err := s.api.ToggleCartItem(ctx, itemID); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// Add puts quantity of the item in the cart and patches the cache from the
// mutation response. Quantities below one are rejected before any request
// is made; use Remove or UpdateQuantity to take an item out.
func (s *CartSynchronizer) Add(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	release := s.acquireItem(itemID)
	defer release()

	line, err := s.api.AddCartItem(ctx, itemID, quantity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(*line)
	s.recomputeLocked()
	return nil
}

// UpdateQuantity sets the item's quantity; below one it removes the item.
func (s *CartSynchronizer) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, itemID)
	}

	release := s.acquireItem(itemID)
	defer release()

	line, err := s.api.UpdateCartQuantity(ctx, itemID, quantity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchLocked(*line)
	s.recomputeLocked()
	return nil
}

func (s *CartSynchronizer) Remove(ctx context.Context, itemID string) error {
	release := s.acquireItem(itemID)
	defer release()

	if err := s.api.RemoveCartItem(ctx, itemID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(itemID)
	s.recomputeLocked()
	return nil
}

// Clear empties the cart server-side then resets the cache. Called exactly
// once per completed checkout.
func (s *CartSynchronizer) Clear(ctx context.Context) error {
	if err := s.api.ClearCart(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.recomputeLocked()
	return nil
}

// Recompute re-derives totals; the coupon manager calls it after apply and
// remove.
func (s *CartSynchronizer) Recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *CartSynchronizer) State() CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(s.items))
	copy(items, s.items)

	var applied *Coupon
	if s.coupons != nil {
		applied = s.coupons.Applied()
	}
	return CartState{Items: items, AppliedCoupon: applied, Totals: s.totals}
}

func (s *CartSynchronizer) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Busy reports whether a mutation for the item is in flight.
func (s *CartSynchronizer) Busy(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[itemID]
	return ok
}

func (s *CartSynchronizer) snapshot() []WireItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]WireItem, len(s.items))
	for i, item := range s.items {
		items[i] = WireItem{ItemID: item.ItemID, UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return items
}

// acquireItem blocks until no mutation is in flight for the item, then
// claims the slot. This is the serialization policy for the same-item race:
// a second toggle waits out the first's full round trip.
func (s *CartSynchronizer) acquireItem(itemID string) (release func()) {
	s.mu.Lock()
	for {
		ch, ok := s.inflight[itemID]
		if !ok {
			break
		}
		s.mu.Unlock()
		<-ch
		s.mu.Lock()
	}
	ch := make(chan struct{})
	s.inflight[itemID] = ch
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.inflight, itemID)
		s.mu.Unlock()
		close(ch)
	}
}

func (s *CartSynchronizer) patchLocked(line WireItem) {
	for i := range s.items {
		if s.items[i].ItemID == line.ItemID {
			s.items[i].UnitPrice = line.UnitPrice
			s.items[i].Quantity = line.Quantity
			return
		}
	}
	s.items = append(s.items, Item{ItemID: line.ItemID, UnitPrice: line.UnitPrice, Quantity: line.Quantity})
}

func (s *CartSynchronizer) dropLocked(itemID string) {
	for i, item := range s.items {
		if item.ItemID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *CartSynchronizer) recomputeLocked() {
	lines := make([]pricing.Line, len(s.items))
	for i, item := range s.items {
		lines[i] = pricing.NewLine(item.ItemID, item.UnitPrice, item.Quantity)
	}

	discount := decimal.Zero
	if s.coupons != nil {
		discount = s.coupons.appliedDiscount()
	}
	s.totals = pricing.Compute(lines, discount)
}
