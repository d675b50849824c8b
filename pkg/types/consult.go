package types

import "time"

// Hospital represents a hospital in the directory. Doctors are owned by
// exactly one hospital.
type Hospital struct {
	ID                string      `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	NameTranslations  Translation `json:"name_translations"`
	Address           string      `json:"address" db:"address"`
	Location          GeoPoint    `json:"location"`
	Contact           string      `json:"contact" db:"contact"`
	Specialties       []string    `json:"specialties"`
	Rating            float64     `json:"rating" db:"rating"`
	EmergencyServices bool        `json:"emergency_services" db:"emergency_services"`
	IsActive          bool        `json:"is_active" db:"is_active"`
	DisplayName       string      `json:"display_name,omitempty" db:"-"`
}

// AvailabilityWindow is a weekly recurring half-open interval [StartTime,
// EndTime) in local wall-clock time. Times are zero-padded "HH:MM" strings;
// no timezone is stored.
type AvailabilityWindow struct {
	Day       time.Weekday `json:"day"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
}

// Doctor represents a doctor attached to a hospital.
type Doctor struct {
	ID                         string               `json:"id" db:"id"`
	HospitalID                 string               `json:"hospital_id" db:"hospital_id"`
	Name                       string               `json:"name" db:"name"`
	Specialization             string               `json:"specialization" db:"specialization"`
	SpecializationTranslations Translation          `json:"specialization_translations"`
	Qualifications             []string             `json:"qualifications"`
	ExperienceYears            int                  `json:"experience_years" db:"experience_years"`
	Languages                  []Language           `json:"languages"`
	Availability               []AvailabilityWindow `json:"availability"`
	ConsultationFee            float64              `json:"consultation_fee" db:"consultation_fee"`
	Rating                     float64              `json:"rating" db:"rating"`
	TotalConsultations         int                  `json:"total_consultations" db:"total_consultations"`
	IsActive                   bool                 `json:"is_active" db:"is_active"`
	DisplaySpecialization      string               `json:"display_specialization,omitempty" db:"-"`
	Hospital                   *Hospital            `json:"hospital,omitempty" db:"-"`
}

// ConsultationStatus represents consultation status values
type ConsultationStatus string

const (
	ConsultationScheduled ConsultationStatus = "scheduled"
	ConsultationOngoing   ConsultationStatus = "ongoing"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
	ConsultationNoShow    ConsultationStatus = "no-show"
)

// Terminal reports whether the status permits no further transitions.
func (s ConsultationStatus) Terminal() bool {
	return s == ConsultationCompleted || s == ConsultationCancelled || s == ConsultationNoShow
}

// ConsultationType represents the consultation delivery channel.
type ConsultationType string

const (
	ConsultVideo    ConsultationType = "video"
	ConsultPhone    ConsultationType = "phone"
	ConsultInPerson ConsultationType = "in-person"
)

// PaymentStatus represents the payment state of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Consultation links a user, a doctor and a hospital at a scheduled instant.
// Fee is a snapshot of the doctor's fee at booking time. MeetingID and
// MeetingLink are populated only for video consultations.
type Consultation struct {
	ID             string             `json:"id" db:"id"`
	UserID         string             `json:"user_id" db:"user_id"`
	DoctorID       string             `json:"doctor_id" db:"doctor_id"`
	HospitalID     string             `json:"hospital_id" db:"hospital_id"`
	SymptomCheckID string             `json:"symptom_check_id,omitempty" db:"symptom_check_id"`
	ScheduledAt    time.Time          `json:"scheduled_at" db:"scheduled_at"`
	Status         ConsultationStatus `json:"status" db:"status"`
	Type           ConsultationType   `json:"type" db:"type"`
	MeetingID      string             `json:"meeting_id,omitempty" db:"meeting_id"`
	MeetingLink    string             `json:"meeting_link,omitempty" db:"meeting_link"`
	Fee            float64            `json:"fee" db:"fee"`
	PaymentStatus  PaymentStatus      `json:"payment_status" db:"payment_status"`
	Notes          string             `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
	Doctor         *Doctor            `json:"doctor,omitempty" db:"-"`
	HospitalInfo   *Hospital          `json:"hospital,omitempty" db:"-"`
}

// RequestStatus represents consultation-request status values.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// ConsultationRequest is the deferred-acceptance booking variant: the meeting
// identifier and link are allocated when the doctor accepts, not at creation.
type ConsultationRequest struct {
	ID              string        `json:"id" db:"id"`
	RequestID       string        `json:"request_id" db:"request_id"`
	PatientID       string        `json:"patient_id" db:"patient_id"`
	DoctorID        string        `json:"doctor_id" db:"doctor_id"`
	HospitalID      string        `json:"hospital_id" db:"hospital_id"`
	ScheduledDate   time.Time     `json:"scheduled_date" db:"scheduled_date"`
	TimeSlot        string        `json:"time_slot" db:"time_slot"`
	Symptoms        string        `json:"symptoms,omitempty" db:"symptoms"`
	Status          RequestStatus `json:"status" db:"status"`
	MeetingID       string        `json:"meeting_id,omitempty" db:"meeting_id"`
	MeetingLink     string        `json:"meeting_link,omitempty" db:"meeting_link"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ConsultationFee float64       `json:"consultation_fee" db:"consultation_fee"`
	PaymentStatus   PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// ConsultationFilters represents filters for consultation queries
type ConsultationFilters struct {
	UserID   string             `json:"user_id,omitempty"`
	DoctorID string             `json:"doctor_id,omitempty"`
	Status   ConsultationStatus `json:"status,omitempty"`
	Limit    int                `json:"limit,omitempty"`
	Offset   int                `json:"offset,omitempty"`
}

// DoctorFilters represents filters for directory queries. AvailableOn is a
// pointer so filtering on Sunday (weekday zero) stays expressible.
type DoctorFilters struct {
	HospitalID     string        `json:"hospital_id,omitempty"`
	Specialization string        `json:"specialization,omitempty"`
	AvailableOn    *time.Weekday `json:"available_on,omitempty"`
	AvailableOnly  bool          `json:"available_only,omitempty"`
}

// HospitalFilters represents filters for hospital directory queries. When
// Near is set, results are limited to RadiusKm around the point.
type HospitalFilters struct {
	Near     *GeoPoint `json:"near,omitempty"`
	RadiusKm float64   `json:"radius_km,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}
