package sos

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the SOS service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the SOS HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures SOS routes on an authenticated subrouter.
func (h *Handlers) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/sos/trigger", h.triggerHandler).Methods("POST")
	protected.HandleFunc("/sos/active/status", h.activeHandler).Methods("GET")
	protected.HandleFunc("/sos/history", h.historyHandler).Methods("GET")
	protected.HandleFunc("/sos/{id}", h.getHandler).Methods("GET")
	protected.HandleFunc("/sos/{id}/status", h.updateStatusHandler).Methods("PUT")
	protected.HandleFunc("/sos/{id}/cancel", h.cancelHandler).Methods("PUT")
}

// triggerHandler handles SOS triggering
func (h *Handlers) triggerHandler(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	result, err := h.service.Trigger(r.Context(), httpapi.UserID(r.Context()), httpapi.Lang(r.Context()), &req)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, result)
}

// activeHandler handles active SOS retrieval
func (h *Handlers) activeHandler(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Active(r.Context(), httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"hasActiveSOS": record != nil,
		"activeSOS":    record,
	})
}

// historyHandler handles SOS history queries
func (h *Handlers) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.service.History(r.Context(), httpapi.UserID(r.Context()), limit, offset)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, page)
}

// getHandler handles single SOS retrieval
func (h *Handlers) getHandler(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, record)
}

// updateStatusHandler handles SOS status transitions
func (h *Handlers) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status types.SOSStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	record, err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()), req.Status)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, record)
}

// cancelHandler handles SOS cancellation
func (h *Handlers) cancelHandler(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Cancel(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, record)
}
