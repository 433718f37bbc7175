package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aydjay12/RentUp-sub001/internal/cart/cache"
	"github.com/aydjay12/RentUp-sub001/internal/cart/domain"
	"github.com/aydjay12/RentUp-sub001/internal/cart/repository"
	"golang.org/x/sync/singleflight"
)

// PriceSource resolves the current listing price for a residence. The cart
// captures it at add time so later listing edits do not reprice held carts.
type PriceSource interface {
	UnitPrice(ctx context.Context, itemID string) (float64, error)
}

var ErrUnknownItem = errors.New("unknown item")

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	prices PriceSource
	sfg    singleflight.Group // collapses concurrent cache misses per user
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, prices PriceSource) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		prices: prices,
	}
}

// GetCart returns the authoritative cart. A user without a cart gets an
// empty one, not an error.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err)
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				log.Printf("cart cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// Toggle flips cart membership for the item and reports whether it ended up
// in the cart. Adding resolves the listing price server-side.
func (s *CartService) Toggle(ctx context.Context, userID, itemID string) (bool, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return false, err
	}

	if cart != nil && cart.Has(itemID) {
		if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
			return false, err
		}
		s.invalidate(userID)
		return false, nil
	}

	price, err := s.prices.UnitPrice(ctx, itemID)
	if err != nil {
		return false, err
	}
	if err := s.repo.AddItem(ctx, userID, domain.LineItem{
		ItemID:    itemID,
		UnitPrice: price,
		Quantity:  1,
	}); err != nil {
		return false, err
	}
	s.invalidate(userID)
	return true, nil
}

// AddItem adds quantity of the item (resolving its price when it is new to
// the cart) and returns the resulting line.
func (s *CartService) AddItem(ctx context.Context, userID, itemID string, quantity int) (*domain.LineItem, error) {
	price, err := s.prices.UnitPrice(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddItem(ctx, userID, domain.LineItem{
		ItemID:    itemID,
		UnitPrice: price,
		Quantity:  quantity,
	}); err != nil {
		return nil, err
	}
	s.invalidate(userID)

	return s.lineAfterWrite(ctx, userID, itemID)
}

// UpdateQuantity sets the quantity of an existing line. A quantity below one
// removes the line instead.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.LineItem, error) {
	if quantity < 1 {
		if err := s.RemoveItem(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	s.invalidate(userID)

	return s.lineAfterWrite(ctx, userID, itemID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CartService) lineAfterWrite(ctx context.Context, userID, itemID string) (*domain.LineItem, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := cart.Find(itemID)
	if line == nil {
		return nil, repository.ErrItemNotFound
	}
	return line, nil
}

func (s *CartService) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
