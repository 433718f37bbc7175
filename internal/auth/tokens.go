package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrUnknownSession = errors.New("unknown session token")
	// ErrTokenExpired covers restoration tokens past their TTL or never
	// minted. The caller distinguishes it from transport errors: expiry is
	// a defined outcome, not a retry candidate.
	ErrTokenExpired = errors.New("restoration token expired or unknown")
)

// Store issues and resolves the two credentials the checkout flow needs:
// bearer session tokens, and the short-lived restoration tokens that carry
// identity across the payment redirect. Restoration tokens are TTL-bound but
// not single-use: exchanging one twice within its TTL yields the same
// identity, so a reloaded return page cannot lock itself out.
type Store struct {
	client     *redis.Client
	sessionTTL time.Duration
	restoreTTL time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client:     client,
		sessionTTL: 24 * time.Hour,
		restoreTTL: 15 * time.Minute,
	}
}

func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), userID, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *Store) LookupSession(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	return userID, nil
}

func (s *Store) MintRestorationToken(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, restoreKey(token), userID, s.restoreTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store restoration token: %w", err)
	}
	return token, nil
}

// ExchangeRestorationToken resolves a token back to its user. It does not
// consume the token; repeat exchanges are idempotent until the TTL runs out.
func (s *Store) ExchangeRestorationToken(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, restoreKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenExpired
	}
	if err != nil {
		return "", fmt.Errorf("failed to exchange restoration token: %w", err)
	}
	return userID, nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("rentup:session:%s", token)
}

func restoreKey(token string) string {
	return fmt.Sprintf("rentup:restore:%s", token)
}
