// Package middleware provides the request-scoped trust boundary: resolving
// the bearer token into a user before protected handlers run.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
)

// Authenticator resolves a raw session token into its owner.
type Authenticator interface {
	Authenticate(rawToken string) (*models.User, error)
}

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// UserFromContext returns the authenticated user placed by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// TokenFromContext returns the raw bearer token placed by WithToken. Empty
// when the request carried none.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// RequireAuth rejects requests without a valid session token and attaches
// the resolved user to the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(bearerToken(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(apperrors.HTTPStatus(apperrors.ErrUnauthenticated))
				w.Write([]byte(`{"message":"Not authenticated."}`))
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithToken passes the raw bearer token through to handlers that do their
// own per-operation authentication (the GraphQL resolvers). The token is not
// validated here; requests without one proceed unauthenticated.
func WithToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), tokenKey, bearerToken(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
