package interfaces

import (
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// ConsultRepository defines the interface for directory and booking persistence.
type ConsultRepository interface {
	// Directory
	GetHospitalByID(id string) (*types.Hospital, error)
	GetHospitals(filters *types.HospitalFilters) ([]*types.Hospital, error)
	GetDoctorByID(id string) (*types.Doctor, error)
	GetDoctors(filters *types.DoctorFilters) ([]*types.Doctor, error)
	IncrementDoctorConsultations(doctorID string) error

	// Consultations
	CreateConsultation(c *types.Consultation) error
	GetConsultationByID(id string) (*types.Consultation, error)
	GetConsultationByMeetingID(meetingID string) (*types.Consultation, error)
	GetConsultations(filters *types.ConsultationFilters) ([]*types.Consultation, error)
	CountConsultations(filters *types.ConsultationFilters) (int, error)
	// GetConflictingConsultations returns non-terminal consultations for the
	// doctor whose scheduled_at lies within the given window around the
	// candidate instant.
	GetConflictingConsultations(doctorID string, around time.Time, window time.Duration) ([]*types.Consultation, error)
	// TransitionConsultation atomically moves a consultation owned by userID
	// from one of the allowed statuses to the target status. Returns false
	// when no row matched (absent, not owned, or not in an allowed status).
	TransitionConsultation(id, userID string, allowed []types.ConsultationStatus, to types.ConsultationStatus) (bool, error)
	// MarkNoShows transitions consultations still scheduled earlier than the
	// cutoff to no-show, returning the number affected.
	MarkNoShows(cutoff time.Time) (int64, error)

	// Consultation requests
	CreateRequest(req *types.ConsultationRequest) error
	GetRequestByRequestID(requestID string) (*types.ConsultationRequest, error)
	GetRequestsByPatient(patientID string) ([]*types.ConsultationRequest, error)
	GetPendingRequests(doctorID string) ([]*types.ConsultationRequest, error)
	UpdateRequest(req *types.ConsultationRequest) error
}
