package consult

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the consult service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the consult HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures the directory, booking and request routes on an
// authenticated subrouter.
func (h *Handlers) RegisterRoutes(protected *mux.Router) {
	// Directory
	protected.HandleFunc("/consult/hospitals", h.listHospitalsHandler).Methods("GET")
	protected.HandleFunc("/consult/doctors", h.listDoctorsHandler).Methods("GET")
	protected.HandleFunc("/consult/doctors/{id}", h.getDoctorHandler).Methods("GET")
	protected.HandleFunc("/consult/doctors/{id}/pending-requests", h.pendingRequestsHandler).Methods("GET")

	// Consultation requests. Registered before the {id} routes so the
	// literal segment is not swallowed by the wildcard.
	protected.HandleFunc("/consult/requests", h.createRequestHandler).Methods("POST")
	protected.HandleFunc("/consult/requests", h.listRequestsHandler).Methods("GET")
	protected.HandleFunc("/consult/requests/{requestId}", h.getRequestHandler).Methods("GET")
	protected.HandleFunc("/consult/requests/{requestId}/accept", h.acceptRequestHandler).Methods("POST")
	protected.HandleFunc("/consult/requests/{requestId}/reject", h.rejectRequestHandler).Methods("POST")

	// Consultations
	protected.HandleFunc("/consult/book", h.bookHandler).Methods("POST")
	protected.HandleFunc("/consult/history", h.listConsultationsHandler).Methods("GET")
	protected.HandleFunc("/consult/{id}", h.getConsultationHandler).Methods("GET")
	protected.HandleFunc("/consult/{id}/cancel", h.cancelHandler).Methods("POST")
	protected.HandleFunc("/consult/{id}/status", h.updateStatusHandler).Methods("PUT")
}

// listHospitalsHandler handles hospital directory queries
func (h *Handlers) listHospitalsHandler(w http.ResponseWriter, r *http.Request) {
	filters := &types.HospitalFilters{}

	q := r.URL.Query()
	if latStr, lonStr := q.Get("latitude"), q.Get("longitude"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			httpapi.WriteError(w, r, h.logger,
				types.NewValidationError(types.ErrCodeInvalidInput, "invalid coordinates", nil))
			return
		}
		filters.Near = &types.GeoPoint{Latitude: lat, Longitude: lon}
		filters.RadiusKm = 25
		if radius := q.Get("radius_km"); radius != "" {
			if parsed, err := strconv.ParseFloat(radius, 64); err == nil && parsed > 0 {
				filters.RadiusKm = parsed
			}
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filters.Limit = parsed
		}
	}

	hospitals, err := h.service.GetHospitals(r.Context(), filters, httpapi.Lang(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, hospitals)
}

// listDoctorsHandler handles doctor directory queries
func (h *Handlers) listDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	filters := &types.DoctorFilters{}

	q := r.URL.Query()
	filters.HospitalID = q.Get("hospital_id")
	filters.Specialization = q.Get("specialization")
	filters.AvailableOnly = q.Get("available_now") == "true"
	if day := q.Get("available_on"); day != "" {
		if parsed, err := strconv.Atoi(day); err == nil && parsed >= 0 && parsed <= 6 {
			weekday := time.Weekday(parsed)
			filters.AvailableOn = &weekday
		}
	}

	doctors, err := h.service.GetDoctors(r.Context(), filters, httpapi.Lang(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, doctors)
}

// getDoctorHandler handles single doctor retrieval
func (h *Handlers) getDoctorHandler(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.service.GetDoctor(r.Context(), mux.Vars(r)["id"], httpapi.Lang(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, doctor)
}

// bookHandler handles consultation booking
func (h *Handlers) bookHandler(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	consultation, err := h.service.Book(r.Context(), httpapi.UserID(r.Context()), &req)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, consultation)
}

// listConsultationsHandler handles consultation history queries
func (h *Handlers) listConsultationsHandler(w http.ResponseWriter, r *http.Request) {
	filters := &types.ConsultationFilters{}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filters.Status = types.ConsultationStatus(status)
	}
	if limit := q.Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filters.Limit = parsed
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil {
			filters.Offset = parsed
		}
	}

	page, err := h.service.ListConsultations(r.Context(), httpapi.UserID(r.Context()), filters)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, page)
}

// getConsultationHandler handles single consultation retrieval
func (h *Handlers) getConsultationHandler(w http.ResponseWriter, r *http.Request) {
	consultation, err := h.service.GetConsultation(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, consultation)
}

// cancelHandler handles consultation cancellation
func (h *Handlers) cancelHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context())); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": string(types.ConsultationCancelled)})
}

// updateStatusHandler handles consultation status transitions
func (h *Handlers) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status types.ConsultationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()), req.Status); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// createRequestHandler handles consultation request creation
func (h *Handlers) createRequestHandler(w http.ResponseWriter, r *http.Request) {
	var input RequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	req, err := h.service.CreateRequest(r.Context(), httpapi.UserID(r.Context()), &input)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, req)
}

// listRequestsHandler handles patient request listing
func (h *Handlers) listRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context(), httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, requests)
}

// getRequestHandler handles single request retrieval
func (h *Handlers) getRequestHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetRequest(r.Context(), mux.Vars(r)["requestId"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, req)
}

// acceptRequestHandler handles request acceptance
func (h *Handlers) acceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.AcceptRequest(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, req)
}

// rejectRequestHandler handles request rejection
func (h *Handlers) rejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	req, err := h.service.RejectRequest(r.Context(), mux.Vars(r)["requestId"], body.Reason)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, req)
}

// pendingRequestsHandler handles a doctor's pending request queue
func (h *Handlers) pendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListPendingRequests(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, requests)
}
