package client

import (
	"context"
	"log"
	"net/url"
	"sync"
)

// CheckoutPhase names a step of the checkout flow.
type CheckoutPhase string

const (
	PhaseIdle             CheckoutPhase = "idle"
	PhaseSessionCreated   CheckoutPhase = "session_created"
	PhaseRedirected       CheckoutPhase = "redirected"
	PhaseReconciling      CheckoutPhase = "reconciling"
	PhaseCompleted        CheckoutPhase = "completed"
	PhaseAlreadyProcessed CheckoutPhase = "already_processed"
	PhaseFailed           CheckoutPhase = "failed"
)

type cartForCheckout interface {
	ItemCount() int
	snapshot() []WireItem
	Clear(ctx context.Context) error
}

type couponForCheckout interface {
	AppliedCode() string
}

// CheckoutOrchestrator drives a checkout from session creation through the
// return from the payment provider. Completion is reported to the server at
// most once per orchestrator: a landing page that fires its return handler
// twice still produces a single completion call, and the server's own
// idempotency covers any retry from a fresh orchestrator.
type CheckoutOrchestrator struct {
	api     *API
	cart    cartForCheckout
	coupons couponForCheckout

	maxItems int

	mu         sync.Mutex
	phase      CheckoutPhase
	session    *CheckoutSession
	reconciled bool
	lastErr    error
}

func newCheckoutOrchestrator(api *API, cart cartForCheckout, coupons couponForCheckout, maxItems int) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		api:      api,
		cart:     cart,
		coupons:  coupons,
		maxItems: maxItems,
		phase:    PhaseIdle,
	}
}

// Begin creates a payment session from the current cart. Empty and
// over-cap carts are rejected locally before any network call; the server
// enforces the same limits again.
func (o *CheckoutOrchestrator) Begin(ctx context.Context) (*CheckoutSession, error) {
	count := o.cart.ItemCount()
	if count == 0 {
		return nil, ErrEmptyCart
	}
	if o.maxItems > 0 && count > o.maxItems {
		return nil, ErrCartTooLarge
	}

	items := o.cart.snapshot()
	code := ""
	if o.coupons != nil {
		code = o.coupons.AppliedCode()
	}

	session, err := o.api.CreateCheckoutSession(ctx, items, code)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.mu.Lock()
	o.phase = PhaseSessionCreated
	o.session = session
	o.reconciled = false
	o.lastErr = nil
	o.mu.Unlock()
	return session, nil
}

// Redirect returns the provider URL to send the user to and marks the
// hand-off. It is valid only after Begin.
func (o *CheckoutOrchestrator) Redirect() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return "", ErrMissingSessionID
	}
	o.phase = PhaseRedirected
	return o.session.RedirectURL, nil
}

// HandleReturn processes the landing URL after the provider redirects back.
// It restores the session from the embedded auth token when the original
// cookie was lost, reports the completion exactly once, and clears the cart
// only when this report was the one that completed the session. A missing
// session_id is terminal: there is nothing to reconcile and no call is made.
func (o *CheckoutOrchestrator) HandleReturn(ctx context.Context, rawURL string) (CheckoutPhase, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		o.fail(err)
		return PhaseFailed, err
	}

	query := u.Query()
	sessionID := query.Get("session_id")
	if sessionID == "" {
		o.fail(ErrMissingSessionID)
		return PhaseFailed, ErrMissingSessionID
	}

	if token := query.Get("auth_token"); token != "" && !o.api.HasToken() {
		if _, err := o.api.RestoreSession(ctx, token); err != nil {
			// Completion does not require auth; the server keys the
			// session by id. A dead restoration token only costs the
			// signed-in return experience.
			log.Printf("checkout: session restore failed: %v", err)
		}
	}

	o.mu.Lock()
	if o.reconciled {
		phase := o.phase
		o.mu.Unlock()
		return phase, nil
	}
	o.reconciled = true
	o.phase = PhaseReconciling
	o.mu.Unlock()

	result, err := o.api.CompleteCheckout(ctx, sessionID)
	if err != nil {
		// The guard stays set: retrying from here risks a duplicate
		// order email if the first call landed. A fresh orchestrator
		// (page reload) may retry; the server dedupes.
		o.fail(err)
		return PhaseFailed, err
	}

	switch result.Status {
	case "completed":
		o.setPhase(PhaseCompleted)
		if err := o.cart.Clear(ctx); err != nil {
			log.Printf("checkout: clearing cart after completion: %v", err)
		}
		return PhaseCompleted, nil
	case "already_processed":
		o.setPhase(PhaseAlreadyProcessed)
		return PhaseAlreadyProcessed, nil
	default:
		o.setPhase(PhaseCompleted)
		return PhaseCompleted, nil
	}
}

// Phase returns the current step of the flow.
func (o *CheckoutOrchestrator) Phase() CheckoutPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Err returns the failure that moved the flow to PhaseFailed, nil otherwise.
func (o *CheckoutOrchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *CheckoutOrchestrator) setPhase(p CheckoutPhase) {
	o.mu.Lock()
	o.phase = p
	o.lastErr = nil
	o.mu.Unlock()
}

func (o *CheckoutOrchestrator) fail(err error) {
	o.mu.Lock()
	o.phase = PhaseFailed
	o.lastErr = err
	o.mu.Unlock()
}
