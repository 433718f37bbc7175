package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	d "github.com/aydjay12/RentUp-sub001/internal/checkout/domain"
	r "github.com/aydjay12/RentUp-sub001/internal/checkout/repository"
	"github.com/aydjay12/RentUp-sub001/internal/coupon"
	"github.com/aydjay12/RentUp-sub001/internal/pricing"
	"github.com/shopspring/decimal"
)

// CouponValidator revalidates a coupon code at session-creation time. The
// client already validated it once; the ledger must not trust that.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (*coupon.Coupon, error)
}

// TokenMinter issues the restoration token embedded in the return URL so
// identity survives the cross-site redirect even when cookies do not.
type TokenMinter interface {
	MintRestorationToken(ctx context.Context, userID string) (string, error)
}

type CompletionOutcome string

const (
	OutcomeCompleted        CompletionOutcome = "completed"
	OutcomeAlreadyProcessed CompletionOutcome = "already_processed"
)

type Config struct {
	MaxCartItems int
	ReturnURL    string
	Currency     string
}

type Service struct {
	repo     r.Ledger
	provider PaymentProvider
	coupons  CouponValidator
	tokens   TokenMinter
	cfg      Config
}

func NewService(repo r.Ledger, provider PaymentProvider, coupons CouponValidator, tokens TokenMinter, cfg Config) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		coupons:  coupons,
		tokens:   tokens,
		cfg:      cfg,
	}
}

type CreateSessionResult struct {
	SessionID   string
	RedirectURL string
}

// CreateSession freezes the cart into a snapshot, opens a provider session
// and records it as Pending. The size guards run before any provider call.
func (s *Service) CreateSession(ctx context.Context, userID string, items []d.SnapshotItem, couponCode string) (*CreateSessionResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if len(items) > s.cfg.MaxCartItems {
		return nil, ErrCartTooLarge
	}

	discount := decimal.Zero
	if couponCode != "" {
		c, err := s.coupons.Validate(ctx, couponCode)
		if err != nil {
			return nil, err
		}
		discount = c.DiscountPercentage
	}

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.NewLine(item.ItemID, item.UnitPrice, item.Quantity)
	}
	totals := pricing.Compute(lines, discount)

	returnURL := s.cfg.ReturnURL
	token, err := s.tokens.MintRestorationToken(ctx, userID)
	if err != nil {
		// Restoration is a mitigation, not a prerequisite: checkout
		// proceeds, cookie loss on return just cannot be repaired.
		log.Printf("failed to mint restoration token for %s: %v", userID, err)
	} else {
		returnURL = appendQuery(returnURL, "auth_token", token)
	}

	total, _ := totals.Total.Round(2).Float64()
	subtotal, _ := totals.Subtotal.Round(2).Float64()

	provSession, err := s.provider.CreateSession(ctx, ProviderRequest{
		Amount:    total,
		Currency:  s.cfg.Currency,
		Reference: userID,
		ReturnURL: returnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider session: %w", err)
	}

	session := &d.Session{
		ID:     provSession.ID,
		UserID: userID,
		Snapshot: d.CartSnapshot{
			Items:      items,
			CouponCode: couponCode,
			Subtotal:   subtotal,
			Total:      total,
			Currency:   s.cfg.Currency,
			CapturedAt: time.Now(),
		},
		Status: d.SessionStatusPending,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &CreateSessionResult{
		SessionID:   provSession.ID,
		RedirectURL: provSession.RedirectURL,
	}, nil
}

// Complete finalizes the session keyed on its id. The first call transitions
// and enqueues the confirmation event; every later call reports
// already_processed without re-running side effects.
func (s *Service) Complete(ctx context.Context, sessionID string) (CompletionOutcome, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"session_id":   session.ID,
		"user_id":      session.UserID,
		"items":        session.Snapshot.Items,
		"total_amount": session.Snapshot.Total,
		"currency":     session.Snapshot.Currency,
		"completed_at": time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	already, err := s.repo.CompleteSession(ctx, sessionID, payload)
	if err != nil {
		return "", err
	}
	if already {
		return OutcomeAlreadyProcessed, nil
	}
	return OutcomeCompleted, nil
}

func appendQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
