package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// PaymentProvider is the hosted-checkout collaborator. It issues an opaque
// session id plus the URL the browser is handed off to; on success the
// provider redirects back to ReturnURL with session_id appended.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req ProviderRequest) (ProviderSession, error)
}

type ProviderRequest struct {
	Amount    float64
	Currency  string
	Reference string
	ReturnURL string
}

type ProviderSession struct {
	ID          string
	RedirectURL string
}

// StubProvider stands in for the real hosted checkout in dev and tests.
type StubProvider struct {
	BaseURL string
}

func (p StubProvider) CreateSession(_ context.Context, req ProviderRequest) (ProviderSession, error) {
	id := "cs_" + uuid.NewString()
	redirect := fmt.Sprintf("%s/pay/%s?return_url=%s",
		p.BaseURL, id, url.QueryEscape(req.ReturnURL))
	return ProviderSession{ID: id, RedirectURL: redirect}, nil
}
