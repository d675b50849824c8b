package auth

import (
	"net/http"
	"strings"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Middleware authenticates requests via bearer tokens and loads the user
// into the request context.
type Middleware struct {
	tokens *TokenManager
	users  interfaces.UserRepository
	logger *logger.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenManager, users interfaces.UserRepository, log *logger.Logger) *Middleware {
	return &Middleware{tokens: tokens, users: users, logger: log}
}

// Require wraps a handler so it only runs for authenticated requests.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpapi.WriteError(w, r, m.logger,
				types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing authorization token"))
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			httpapi.WriteError(w, r, m.logger,
				types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid or expired token"))
			return
		}

		user, err := m.users.GetUserByID(claims.UserID)
		if err != nil {
			httpapi.WriteError(w, r, m.logger,
				types.NewInternalError(types.ErrCodeInternalError, "failed to load user", err))
			return
		}
		if user == nil {
			httpapi.WriteError(w, r, m.logger,
				types.NewAuthenticationError(types.ErrCodeUnauthorized, "user no longer exists"))
			return
		}

		ctx := httpapi.WithUser(r.Context(), user.ID, user.Language)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
