package client

// Config tunes a Store. Zero values fall back to the defaults below.
type Config struct {
	// MaxCartItems caps distinct cart lines at checkout. The server
	// enforces the same cap.
	MaxCartItems int
}

const defaultMaxCartItems = 8

// Store bundles the client-side state managers over one API client. The
// cart and coupon managers reference each other: applying or removing a
// coupon recomputes cart totals, and the cart folds the applied discount
// into every recompute.
type Store struct {
	API       *API
	Cart      *CartSynchronizer
	Coupons   *CouponManager
	Checkout  *CheckoutOrchestrator
	Favorites *FavoritesToggler
}

func NewStore(baseURL string, cfg Config) *Store {
	if cfg.MaxCartItems <= 0 {
		cfg.MaxCartItems = defaultMaxCartItems
	}

	api := NewAPI(baseURL)
	cart := newCartSynchronizer(api)
	coupons := newCouponManager(api)
	cart.coupons = coupons
	coupons.cart = cart

	return &Store{
		API:       api,
		Cart:      cart,
		Coupons:   coupons,
		Checkout:  newCheckoutOrchestrator(api, cart, coupons, cfg.MaxCartItems),
		Favorites: newFavoritesToggler(api),
	}
}
