package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the health service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the health HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures symptom-check and chat routes on an
// authenticated subrouter.
func (h *Handlers) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/health/symptom-check", h.symptomCheckHandler).Methods("POST")
	protected.HandleFunc("/health/symptom-history", h.symptomHistoryHandler).Methods("GET")
	protected.HandleFunc("/health/symptom-checks/{id}", h.getSymptomCheckHandler).Methods("GET")
	protected.HandleFunc("/health/chat", h.chatHandler).Methods("POST")
}

// reportedSymptom is one entry of a structured symptom report.
type reportedSymptom struct {
	Symptom  string `json:"symptom"`
	Severity string `json:"severity"`
	Duration string `json:"duration"`
}

type symptomCheckRequest struct {
	Symptoms []reportedSymptom `json:"symptoms"`
	Language types.Language    `json:"language"`
}

// symptomCheckHandler handles AI symptom analysis requests
func (h *Handlers) symptomCheckHandler(w http.ResponseWriter, r *http.Request) {
	var req symptomCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}
	if len(req.Symptoms) == 0 {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "at least one symptom is required", nil))
		return
	}

	check, err := h.service.CheckSymptoms(r.Context(), httpapi.UserID(r.Context()),
		flattenSymptoms(req.Symptoms), req.Language)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"check": check,
	})
}

type chatRequest struct {
	Message  string         `json:"message"`
	Language types.Language `json:"language"`
}

// chatHandler handles free-form health chat requests
func (h *Handlers) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	reply, err := h.service.Chat(r.Context(), httpapi.UserID(r.Context()), req.Message, req.Language)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, reply)
}

// symptomHistoryHandler returns the caller's recent symptom checks
func (h *Handlers) symptomHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	checks, err := h.service.GetHistory(r.Context(), httpapi.UserID(r.Context()), limit)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"checks": checks,
		"count":  len(checks),
	})
}

// getSymptomCheckHandler returns one stored symptom check
func (h *Handlers) getSymptomCheckHandler(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.GetSymptomCheck(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"check": check,
	})
}

// flattenSymptoms renders a structured symptom report as the single line the
// prompt and the stored record use.
func flattenSymptoms(symptoms []reportedSymptom) string {
	parts := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		entry := strings.TrimSpace(s.Symptom)
		if entry == "" {
			continue
		}
		if s.Severity != "" && s.Duration != "" {
			entry = fmt.Sprintf("%s (%s severity, duration: %s)", entry, s.Severity, s.Duration)
		} else if s.Severity != "" {
			entry = fmt.Sprintf("%s (%s severity)", entry, s.Severity)
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, ", ")
}
