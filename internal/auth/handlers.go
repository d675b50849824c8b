package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the auth service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the auth HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures auth routes. The /me route must be wrapped with
// the auth middleware by the caller.
func (h *Handlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/auth/send-otp", h.sendOTPHandler).Methods("POST")
	public.HandleFunc("/auth/verify-otp", h.verifyOTPHandler).Methods("POST")
	protected.HandleFunc("/auth/me", h.meHandler).Methods("GET")
}

// sendOTPHandler handles OTP issue requests
func (h *Handlers) sendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	if err := h.service.SendOTP(r.Context(), &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	lang := req.Language
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": types.MsgOTPSent.Get(lang),
	})
}

// verifyOTPHandler handles OTP verification and login
func (h *Handlers) verifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), &req)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, result)
}

// meHandler returns the authenticated user's profile
func (h *Handlers) meHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, user)
}
