package profile

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the profile service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the profile HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures the profile routes on an authenticated
// subrouter.
func (h *Handlers) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/profile", h.getProfileHandler).Methods("GET")
	protected.HandleFunc("/profile", h.updateProfileHandler).Methods("PUT")
	protected.HandleFunc("/profile/scan/{code}", h.scanHandler).Methods("GET")
}

// getProfileHandler returns the caller's profile, creating it on first access
func (h *Handlers) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetOrCreate(r.Context(), httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
	})
}

// updateProfileHandler applies partial profile changes
func (h *Handlers) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	profile, err := h.service.Update(r.Context(), httpapi.UserID(r.Context()), &in)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
	})
}

// scanHandler resolves a scanned QR code to the patient's profile
func (h *Handlers) scanHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.ScanQR(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
	})
}
