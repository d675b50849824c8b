package types

import "time"

// MedicalCondition is one entry in a patient's medical history.
type MedicalCondition struct {
	Condition     string     `json:"condition"`
	DiagnosedDate *time.Time `json:"diagnosed_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Medication is one entry in a patient's current medication list.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// EmergencyContact is the person to reach when a patient cannot respond.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
}

// PatientProfile is the QR-keyed medical profile a doctor sees when scanning
// a patient's code. One profile per user; the QR code is unique and opaque.
type PatientProfile struct {
	ID             string             `json:"id" db:"id"`
	UserID         string             `json:"user_id" db:"user_id"`
	QRCode         string             `json:"qr_code" db:"qr_code"`
	MedicalHistory []MedicalCondition `json:"medical_history"`
	Allergies      []string           `json:"allergies"`
	Medications    []Medication       `json:"current_medications"`
	BloodGroup     string             `json:"blood_group,omitempty" db:"blood_group"`
	Emergency      *EmergencyContact  `json:"emergency_contact,omitempty"`
	User           *User              `json:"user,omitempty" db:"-"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// SymptomCheck is a stored AI symptom-check interaction, linkable from a
// consultation booking.
type SymptomCheck struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Symptoms  string    `json:"symptoms" db:"symptoms"`
	Advice    string    `json:"advice" db:"advice"`
	Language  Language  `json:"language" db:"language"`
	Fallback  bool      `json:"fallback" db:"fallback"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
