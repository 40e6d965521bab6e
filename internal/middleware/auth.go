package middleware

import (
	"context"
	"net/http"
	"strings"

	"supplier-catalog/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const (
	UserKey     contextKey = "user"
	TokenKeyKey contextKey = "token_key"
)

// Authenticator resolves an API token key to its active user
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*domain.User, error)
}

// AuthMiddleware validates API token keys and stores the resolved user in the context
func AuthMiddleware(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token key from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			key, ok := parseAuthorization(authHeader)
			if !ok {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			// Signature and stored key must both check out
			user, err := authenticator.Authenticate(r.Context(), key)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			// Add user and key to context
			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKeyKey, key)

			logger.Debug("User authenticated",
				zap.String("user_id", user.ID.String()),
				zap.String("type", string(user.Type)),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseAuthorization accepts "Token <key>" and "Bearer <key>"
func parseAuthorization(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	if parts[0] != "Token" && parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext extracts the authenticated user from request context
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// TokenKeyFromContext extracts the token key the request authenticated with
func TokenKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(TokenKeyKey).(string)
	return key, ok
}
