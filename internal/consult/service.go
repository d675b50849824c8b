package consult

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/monitoring"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// conflictWindow is the exclusion zone around an existing booking: another
// booking for the same doctor may not be scheduled strictly within this
// distance of it.
const conflictWindow = 30 * time.Minute

// Service implements directory lookup, booking and the consultation-request
// flow.
type Service struct {
	repository interfaces.ConsultRepository
	events     interfaces.EventPublisher
	meeting    *config.MeetingConfig
	logger     *logger.Logger

	// Per-doctor locks serialize the conflict check and insert for one
	// doctor. Concurrent bookings of nearby slots for the same doctor
	// otherwise both pass the check and both insert.
	mu          sync.Mutex
	doctorLocks map[string]*sync.Mutex
}

// NewService creates a new consult service.
func NewService(repo interfaces.ConsultRepository, events interfaces.EventPublisher, meeting *config.MeetingConfig, log *logger.Logger) *Service {
	return &Service{
		repository:  repo,
		events:      events,
		meeting:     meeting,
		logger:      log,
		doctorLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockDoctor(doctorID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.doctorLocks[doctorID]
	if !ok {
		lock = &sync.Mutex{}
		s.doctorLocks[doctorID] = lock
	}
	return lock
}

// GetHospitals lists hospitals, localizing display names.
func (s *Service) GetHospitals(ctx context.Context, filters *types.HospitalFilters, lang types.Language) ([]*types.Hospital, error) {
	hospitals, err := s.repository.GetHospitals(filters)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to list hospitals", err)
	}
	for _, h := range hospitals {
		h.DisplayName = h.NameTranslations.Get(lang)
	}
	return hospitals, nil
}

// GetDoctors lists doctors matching the filters. When AvailableOnly is set
// the list is narrowed to doctors with a window covering the current instant,
// and AvailableOn narrows to doctors with any window on that weekday.
func (s *Service) GetDoctors(ctx context.Context, filters *types.DoctorFilters, lang types.Language) ([]*types.Doctor, error) {
	doctors, err := s.repository.GetDoctors(filters)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to list doctors", err)
	}

	result := doctors[:0]
	now := time.Now()
	for _, d := range doctors {
		if filters != nil && filters.AvailableOnly && !IsDoctorAvailable(d, now) {
			continue
		}
		if filters != nil && filters.AvailableOn != nil && !hasWindowOn(d, *filters.AvailableOn) {
			continue
		}
		d.DisplaySpecialization = d.SpecializationTranslations.Get(lang)
		result = append(result, d)
	}
	return result, nil
}

func hasWindowOn(d *types.Doctor, day time.Weekday) bool {
	for _, w := range d.Availability {
		if w.Day == day {
			return true
		}
	}
	return false
}

// GetDoctor retrieves a doctor with their hospital.
func (s *Service) GetDoctor(ctx context.Context, id string, lang types.Language) (*types.Doctor, error) {
	doctor, err := s.repository.GetDoctorByID(id)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get doctor", err)
	}
	if doctor == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "doctor not found")
	}
	doctor.DisplaySpecialization = doctor.SpecializationTranslations.Get(lang)
	if doctor.Hospital != nil {
		doctor.Hospital.DisplayName = doctor.Hospital.NameTranslations.Get(lang)
	}
	return doctor, nil
}

// BookingRequest is the request to book a consultation.
type BookingRequest struct {
	DoctorID       string                 `json:"doctor_id"`
	ScheduledAt    time.Time              `json:"scheduled_at"`
	Type           types.ConsultationType `json:"type"`
	SymptomCheckID string                 `json:"symptom_check_id,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// Book books a consultation. The slot must fall inside the doctor's
// availability and keep clear of the doctor's other active bookings. Video
// consultations get a meeting id and session link at creation.
func (s *Service) Book(ctx context.Context, userID string, req *BookingRequest) (*types.Consultation, error) {
	if req.DoctorID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "doctor_id is required", nil)
	}
	if req.ScheduledAt.IsZero() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "scheduled_at is required", nil)
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "cannot book a consultation in the past", nil)
	}
	if req.Type == "" {
		req.Type = types.ConsultVideo
	}
	if req.Type != types.ConsultVideo && req.Type != types.ConsultPhone && req.Type != types.ConsultInPerson {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid consultation type", nil)
	}

	doctor, err := s.repository.GetDoctorByID(req.DoctorID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get doctor", err)
	}
	if doctor == nil || !doctor.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "doctor not found")
	}
	if doctor.Hospital == nil || !doctor.Hospital.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "hospital not found")
	}

	if !IsDoctorAvailable(doctor, req.ScheduledAt) {
		return nil, types.NewConflictError(types.ErrCodeSlotUnavailable, "doctor is not available at the requested time")
	}

	lock := s.lockDoctor(req.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	conflicts, err := s.repository.GetConflictingConsultations(req.DoctorID, req.ScheduledAt, conflictWindow)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to check for conflicts", err)
	}
	if len(conflicts) > 0 {
		monitoring.RecordBooking(string(req.Type), "conflict")
		return nil, types.NewConflictError(types.ErrCodeSlotConflict, "the requested slot conflicts with an existing booking")
	}

	now := time.Now()
	consultation := &types.Consultation{
		ID:             uuid.New().String(),
		UserID:         userID,
		DoctorID:       doctor.ID,
		HospitalID:     doctor.HospitalID,
		SymptomCheckID: req.SymptomCheckID,
		ScheduledAt:    req.ScheduledAt,
		Status:         types.ConsultationScheduled,
		Type:           req.Type,
		Fee:            doctor.ConsultationFee,
		PaymentStatus:  types.PaymentPending,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.Type == types.ConsultVideo {
		consultation.MeetingID = uuid.New().String()
		consultation.MeetingLink = s.meeting.BaseURL + consultation.MeetingID
	}

	if err := s.repository.CreateConsultation(consultation); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create consultation", err)
	}

	// Counter bump is best effort: the booking stands even if it fails.
	if err := s.repository.IncrementDoctorConsultations(doctor.ID); err != nil {
		s.logger.WithError(err).WithField("doctor_id", doctor.ID).Warn("Failed to increment consultation counter")
	}

	monitoring.RecordBooking(string(req.Type), "booked")
	s.events.PublishToUser(userID, "consultation_booked", consultation)

	s.logger.WithFields(map[string]interface{}{
		"consultation_id": consultation.ID,
		"doctor_id":       doctor.ID,
		"user_id":         userID,
		"type":            consultation.Type,
	}).Info("Consultation booked")

	consultation.Doctor = doctor
	return consultation, nil
}

// GetConsultation retrieves a consultation the user owns.
func (s *Service) GetConsultation(ctx context.Context, id, userID string) (*types.Consultation, error) {
	c, err := s.repository.GetConsultationByID(id)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation", err)
	}
	if c == nil || c.UserID != userID {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "consultation not found")
	}
	return c, nil
}

// GetConsultationByMeetingID retrieves a consultation by meeting id, without
// an ownership check. Callers authorize separately.
func (s *Service) GetConsultationByMeetingID(ctx context.Context, meetingID string) (*types.Consultation, error) {
	c, err := s.repository.GetConsultationByMeetingID(meetingID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation", err)
	}
	if c == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "consultation not found")
	}
	return c, nil
}

// AuthorizeMeeting checks whether a user may join a video session: they must
// be the booking patient or the assigned doctor, and the consultation must
// not already be over.
func (s *Service) AuthorizeMeeting(ctx context.Context, meetingID, userID string) error {
	c, err := s.GetConsultationByMeetingID(ctx, meetingID)
	if err != nil {
		return err
	}
	if c.UserID != userID && c.DoctorID != userID {
		return &types.AppError{
			Type:    types.ErrorTypeAuthorization,
			Code:    types.ErrCodeUnauthorized,
			Message: "not a participant of this session",
		}
	}
	if c.Status.Terminal() {
		return types.NewConflictError(types.ErrCodeInvalidState, "this session has ended")
	}
	return nil
}

// ConsultationPage is a page of the user's consultation history.
type ConsultationPage struct {
	Consultations []*types.Consultation `json:"consultations"`
	Total         int                   `json:"total"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// ListConsultations returns a page of the user's consultations, newest first.
func (s *Service) ListConsultations(ctx context.Context, userID string, filters *types.ConsultationFilters) (*ConsultationPage, error) {
	if filters == nil {
		filters = &types.ConsultationFilters{}
	}
	filters.UserID = userID
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	consultations, err := s.repository.GetConsultations(filters)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to list consultations", err)
	}
	total, err := s.repository.CountConsultations(filters)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to count consultations", err)
	}

	return &ConsultationPage{
		Consultations: consultations,
		Total:         total,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	}, nil
}

// Cancel cancels a scheduled or ongoing consultation. Cancelling one that is
// already cancelled (or otherwise terminal) is refused with a conflict, so a
// retried cancel never reports success twice.
func (s *Service) Cancel(ctx context.Context, id, userID string) error {
	ok, err := s.repository.TransitionConsultation(id, userID,
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to cancel consultation", err)
	}
	if ok {
		s.events.PublishToUser(userID, "consultation_cancelled", map[string]string{"consultation_id": id})
		s.logger.WithFields(map[string]interface{}{
			"consultation_id": id,
			"user_id":         userID,
		}).Info("Consultation cancelled")
		return nil
	}

	c, err := s.repository.GetConsultationByID(id)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation", err)
	}
	if c == nil || c.UserID != userID {
		return types.NewNotFoundError(types.ErrCodeNotFound, "consultation not found")
	}
	return types.NewConflictError(types.ErrCodeInvalidState,
		fmt.Sprintf("cannot cancel a consultation in status %s", c.Status))
}

// allowedTransitions maps each target status to the statuses it may be
// reached from.
var allowedTransitions = map[types.ConsultationStatus][]types.ConsultationStatus{
	types.ConsultationOngoing:   {types.ConsultationScheduled},
	types.ConsultationCompleted: {types.ConsultationOngoing},
	types.ConsultationCancelled: {types.ConsultationScheduled, types.ConsultationOngoing},
}

// UpdateStatus moves a consultation along scheduled -> ongoing -> completed.
func (s *Service) UpdateStatus(ctx context.Context, id, userID string, to types.ConsultationStatus) error {
	allowed, ok := allowedTransitions[to]
	if !ok {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid target status", nil)
	}

	moved, err := s.repository.TransitionConsultation(id, userID, allowed, to)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to update consultation status", err)
	}
	if !moved {
		c, err := s.repository.GetConsultationByID(id)
		if err != nil {
			return types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation", err)
		}
		if c == nil || c.UserID != userID {
			return types.NewNotFoundError(types.ErrCodeNotFound, "consultation not found")
		}
		return types.NewConflictError(types.ErrCodeInvalidState,
			fmt.Sprintf("cannot move a consultation from %s to %s", c.Status, to))
	}

	s.events.PublishToUser(userID, "consultation_status", map[string]string{
		"consultation_id": id,
		"status":          string(to),
	})
	return nil
}

// RequestInput is the request to create a consultation request.
type RequestInput struct {
	DoctorID      string    `json:"doctor_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	TimeSlot      string    `json:"time_slot"`
	Symptoms      string    `json:"symptoms,omitempty"`
}

// CreateRequest creates a pending consultation request. The meeting link is
// allocated only when the doctor accepts.
func (s *Service) CreateRequest(ctx context.Context, patientID string, input *RequestInput) (*types.ConsultationRequest, error) {
	if input.DoctorID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "doctor_id is required", nil)
	}
	if input.ScheduledDate.IsZero() || input.TimeSlot == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "scheduled_date and time_slot are required", nil)
	}

	doctor, err := s.repository.GetDoctorByID(input.DoctorID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get doctor", err)
	}
	if doctor == nil || !doctor.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "doctor not found")
	}

	now := time.Now()
	req := &types.ConsultationRequest{
		ID:              uuid.New().String(),
		RequestID:       newRequestID(now),
		PatientID:       patientID,
		DoctorID:        doctor.ID,
		HospitalID:      doctor.HospitalID,
		ScheduledDate:   input.ScheduledDate,
		TimeSlot:        input.TimeSlot,
		Symptoms:        input.Symptoms,
		Status:          types.RequestPending,
		ConsultationFee: doctor.ConsultationFee,
		PaymentStatus:   types.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repository.CreateRequest(req); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create consultation request", err)
	}

	s.events.PublishToUser(patientID, "request_created", req)
	return req, nil
}

// GetRequest retrieves a request by its public id, restricted to the patient
// who made it.
func (s *Service) GetRequest(ctx context.Context, requestID, patientID string) (*types.ConsultationRequest, error) {
	req, err := s.repository.GetRequestByRequestID(requestID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation request", err)
	}
	if req == nil || req.PatientID != patientID {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "consultation request not found")
	}
	return req, nil
}

// ListRequests returns the patient's requests, newest first.
func (s *Service) ListRequests(ctx context.Context, patientID string) ([]*types.ConsultationRequest, error) {
	requests, err := s.repository.GetRequestsByPatient(patientID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to list consultation requests", err)
	}
	return requests, nil
}

// ListPendingRequests returns a doctor's pending requests, oldest first.
func (s *Service) ListPendingRequests(ctx context.Context, doctorID string) ([]*types.ConsultationRequest, error) {
	requests, err := s.repository.GetPendingRequests(doctorID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to list pending requests", err)
	}
	return requests, nil
}

// AcceptRequest accepts a pending request, allocating the video session room
// and link.
func (s *Service) AcceptRequest(ctx context.Context, requestID string) (*types.ConsultationRequest, error) {
	req, err := s.repository.GetRequestByRequestID(requestID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation request", err)
	}
	if req == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "consultation request not found")
	}
	if req.Status != types.RequestPending {
		return nil, types.NewConflictError(types.ErrCodeInvalidState,
			fmt.Sprintf("cannot accept a request in status %s", req.Status))
	}

	req.Status = types.RequestAccepted
	req.MeetingID = "maruthuvan-" + req.RequestID
	req.MeetingLink = s.meeting.JitsiBaseURL + req.MeetingID
	req.UpdatedAt = time.Now()

	if err := s.repository.UpdateRequest(req); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to accept consultation request", err)
	}

	s.events.PublishToUser(req.PatientID, "request_accepted", req)
	s.logger.WithField("request_id", req.RequestID).Info("Consultation request accepted")
	return req, nil
}

// RejectRequest rejects a pending request. A reason is required.
func (s *Service) RejectRequest(ctx context.Context, requestID, reason string) (*types.ConsultationRequest, error) {
	if reason == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "rejection reason is required", nil)
	}

	req, err := s.repository.GetRequestByRequestID(requestID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get consultation request", err)
	}
	if req == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "consultation request not found")
	}
	if req.Status != types.RequestPending {
		return nil, types.NewConflictError(types.ErrCodeInvalidState,
			fmt.Sprintf("cannot reject a request in status %s", req.Status))
	}

	req.Status = types.RequestRejected
	req.RejectionReason = &reason
	req.UpdatedAt = time.Now()

	if err := s.repository.UpdateRequest(req); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to reject consultation request", err)
	}

	s.events.PublishToUser(req.PatientID, "request_rejected", req)
	return req, nil
}

// SweepNoShows marks consultations still scheduled past the grace period as
// no-show. Run on a schedule.
func (s *Service) SweepNoShows(grace time.Duration) {
	cutoff := time.Now().Add(-grace)
	n, err := s.repository.MarkNoShows(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("No-show sweep failed")
		return
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("Marked stale consultations as no-show")
	}
}

// newRequestID builds a human-readable request identifier.
func newRequestID(now time.Time) string {
	return fmt.Sprintf("REQ-%d-%04d", now.UnixMilli(), rand.Intn(10000))
}
