package labs

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/httpapi"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Handlers exposes the labs service over HTTP.
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates the labs HTTP handlers.
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, logger: log}
}

// RegisterRoutes configures the lab directory and booking routes on an
// authenticated subrouter.
func (h *Handlers) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/labs/tests", h.listTestsHandler).Methods("GET")
	protected.HandleFunc("/labs", h.listLabsHandler).Methods("GET")
	protected.HandleFunc("/labs/bookings", h.bookTestHandler).Methods("POST")
	protected.HandleFunc("/labs/bookings", h.listBookingsHandler).Methods("GET")
	protected.HandleFunc("/labs/bookings/{id}", h.getBookingHandler).Methods("GET")
	protected.HandleFunc("/labs/bookings/{id}/status", h.updateStatusHandler).Methods("PUT")
}

// listTestsHandler lists orderable lab tests
func (h *Handlers) listTestsHandler(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.GetTests(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tests": tests,
		"count": len(tests),
	})
}

// listLabsHandler lists diagnostic labs, optionally near a location
func (h *Handlers) listLabsHandler(w http.ResponseWriter, r *http.Request) {
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

	labs, err := h.service.GetLabs(r.Context(), filters)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"labs":  labs,
		"count": len(labs),
	})
}

// bookTestHandler books a lab test
func (h *Handlers) bookTestHandler(w http.ResponseWriter, r *http.Request) {
	var in BookTestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	booking, err := h.service.BookTest(r.Context(), httpapi.UserID(r.Context()), &in)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"booking": booking,
	})
}

// listBookingsHandler lists the caller's lab bookings
func (h *Handlers) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := 0, 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}

	bookings, err := h.service.GetBookings(r.Context(), httpapi.UserID(r.Context()), limit, offset)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// getBookingHandler returns one booking
func (h *Handlers) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), mux.Vars(r)["id"], httpapi.UserID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"booking": booking,
	})
}

// updateStatusHandler advances a booking along the pipeline
func (h *Handlers) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status    types.BookingStatus `json:"status"`
		ReportURL string              `json:"report_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, r, h.logger,
			types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", nil))
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["id"],
		httpapi.UserID(r.Context()), req.Status, req.ReportURL)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"booking": booking,
	})
}
