// Package httpapi holds the JSON response helpers and request-context
// plumbing shared by all HTTP handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	languageKey contextKey = "language"
)

// WithUser returns a context carrying the authenticated user's id and
// preferred language.
func WithUser(ctx context.Context, userID string, lang types.Language) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, languageKey, lang)
}

// UserID extracts the authenticated user id from the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Lang extracts the requester's preferred language, defaulting to Tamil.
func Lang(ctx context.Context) types.Language {
	if lang, ok := ctx.Value(languageKey).(types.Language); ok && lang.IsValid() {
		return lang
	}
	return types.LanguageTamil
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError renders an error for the requester. Known AppErrors surface
// their localized message and mapped status; anything else becomes a generic
// localized 500 so internals never leak to clients.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	lang := Lang(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		if appErr.Type == types.ErrorTypeInternal {
			log.WithError(err).Error("internal error")
			WriteJSON(w, appErr.HTTPStatus(), map[string]interface{}{
				"error": types.MsgServiceUnavailable.Get(lang),
				"code":  types.ErrCodeInternalError,
			})
			return
		}
		if appErr.Type == types.ErrorTypeExternal {
			log.WithError(err).Warn("external service failure")
		}
		WriteJSON(w, appErr.HTTPStatus(), map[string]interface{}{
			"error": appErr.UserMessage(lang),
			"code":  appErr.Code,
		})
		return
	}

	log.WithError(err).Error("unhandled error")
	WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": types.MsgServiceUnavailable.Get(lang),
		"code":  types.ErrCodeInternalError,
	})
}
