package coupon

import (
	"context"
	"time"
)

// Service validates coupon codes and lists the currently eligible catalog.
// The server is authoritative on validity; clients only cache the result.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Validate resolves a code to its coupon. Unknown codes yield
// ErrInvalidCoupon, known but out-of-window codes ErrCouponExpired.
func (s *Service) Validate(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.activeAt(s.now()) {
		return nil, ErrCouponExpired
	}
	return c, nil
}

// ListEligible is a read-only fetch with no side effects on any cart.
func (s *Service) ListEligible(ctx context.Context) ([]Coupon, error) {
	return s.repo.ListActive(ctx)
}
