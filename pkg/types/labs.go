package types

import "time"

// LabTest represents an orderable diagnostic test.
type LabTest struct {
	ID               string      `json:"id" db:"id"`
	Name             string      `json:"name" db:"name"`
	NameTranslations Translation `json:"name_translations"`
	Category         string      `json:"category" db:"category"`
	Price            float64     `json:"price" db:"price"`
	HomeCollection   bool        `json:"home_collection" db:"home_collection"`
	IsActive         bool        `json:"is_active" db:"is_active"`
}

// DiagnosticLab represents a lab that performs tests.
type DiagnosticLab struct {
	ID       string   `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	Address  string   `json:"address" db:"address"`
	Location GeoPoint `json:"location"`
	Contact  string   `json:"contact" db:"contact"`
	Rating   float64  `json:"rating" db:"rating"`
	IsActive bool     `json:"is_active" db:"is_active"`
}

// BookingStatus represents the lab booking pipeline state. Transitions are
// forward-only in declaration order.
type BookingStatus string

const (
	BookingBooked          BookingStatus = "BOOKED"
	BookingSampleCollected BookingStatus = "SAMPLE_COLLECTED"
	BookingProcessing      BookingStatus = "PROCESSING"
	BookingReportReady     BookingStatus = "REPORT_READY"
	BookingCompleted       BookingStatus = "COMPLETED"
)

// SampleType indicates where the sample is collected.
type SampleType string

const (
	SampleHome SampleType = "home"
	SampleLab  SampleType = "lab"
)

// PatientDetails holds the subject of a lab booking, which may differ from
// the booking user.
type PatientDetails struct {
	PatientName string `json:"patient_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address,omitempty"`
}

// LabBooking represents a booked lab test.
type LabBooking struct {
	ID             string         `json:"id" db:"id"`
	BookingID      string         `json:"booking_id" db:"booking_id"`
	UserID         string         `json:"user_id" db:"user_id"`
	TestID         string         `json:"test_id" db:"test_id"`
	LabID          string         `json:"lab_id" db:"lab_id"`
	BookingDate    time.Time      `json:"booking_date" db:"booking_date"`
	TimeSlot       string         `json:"time_slot" db:"time_slot"`
	SampleType     SampleType     `json:"sample_type" db:"sample_type"`
	PatientDetails PatientDetails `json:"patient_details"`
	PaymentStatus  PaymentStatus  `json:"payment_status" db:"payment_status"`
	BookingStatus  BookingStatus  `json:"booking_status" db:"booking_status"`
	ReportURL      string         `json:"report_url,omitempty" db:"report_url"`
	Amount         float64        `json:"amount" db:"amount"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}
