package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/aydjay12/RentUp-sub001/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SessionLookup resolves a bearer token to a user id.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (string, error)
}

// AuthMiddleware attaches the user id when a valid bearer token is present.
// It never rejects by itself: an anonymous visitor browsing listings is
// normal, and each handler decides whether identity is required.
func AuthMiddleware(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" {
				userID, err := sessions.LookupSession(r.Context(), token)
				if err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, userID)
					r = r.WithContext(ctx)
				} else if !errors.Is(err, auth.ErrUnknownSession) {
					log.Printf("session lookup error: %v", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
