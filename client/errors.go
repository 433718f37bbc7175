package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated marks 401/403 responses. For cart and favorites reads
// this is an expected state (anonymous visitor), not a failure.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to check out")
	ErrCartTooLarge = errors.New("cart exceeds the checkout size limit")
	// ErrMissingSessionID: the provider return URL carried no session id.
	// Terminal for the checkout attempt, never retried.
	ErrMissingSessionID = errors.New("return URL carries no session id")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

// ValidationError carries the server's rejection reason for inline display
// (bad coupon code, over-cap cart, unknown item).
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.Reason)
}

// TransientError wraps network failures and 5xx responses: worth a retry,
// and the trigger for the synchronizer's retry affordance.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient request failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
