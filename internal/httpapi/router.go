package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Services struct {
	Cart      CartService
	Coupons   CouponService
	Checkout  CheckoutService
	Favorites FavoritesService
	Sessions  interface {
		SessionLookup
		SessionAuthority
	}
}

// NewRouter mounts the storefront consistency-core API.
func NewRouter(svcs Services, requestTimeout time.Duration) chi.Router {
	cartHandler := NewCartHandler(svcs.Cart, requestTimeout)
	couponHandler := NewCouponHandler(svcs.Coupons, requestTimeout)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, svcs.Cart, requestTimeout)
	favoritesHandler := NewFavoritesHandler(svcs.Favorites, requestTimeout)
	authHandler := NewAuthHandler(svcs.Sessions, requestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(svcs.Sessions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Post("/toggle/{itemId}", cartHandler.Toggle)
		r.Post("/add/{itemId}", cartHandler.AddItem)
		r.Delete("/remove/{itemId}", cartHandler.RemoveItem)
		r.Delete("/clear", cartHandler.ClearCart)
		r.Put("/{itemId}", cartHandler.UpdateQuantity)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", couponHandler.List)
		r.Post("/validate", couponHandler.Validate)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/create-session", checkoutHandler.CreateSession)
		r.Post("/complete", checkoutHandler.Complete)
	})

	r.Post("/auth/restore-session", authHandler.RestoreSession)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", favoritesHandler.List)
		r.Post("/toggle/{itemId}", favoritesHandler.Toggle)
	})

	return r
}
