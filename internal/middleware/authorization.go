package middleware

import (
	"net/http"

	"supplier-catalog/internal/domain"

	"go.uber.org/zap"
)

// RequireUserType middleware ensures the authenticated user has the given type
func RequireUserType(userType domain.UserType, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				logger.Warn("User not found in context")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if user.Type != userType {
				logger.Warn("User type not authorized",
					zap.String("user_id", user.ID.String()),
					zap.String("type", string(user.Type)),
					zap.String("required", string(userType)),
				)
				RespondWithError(w, http.StatusForbidden, "only "+string(userType)+"s may access this endpoint")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
