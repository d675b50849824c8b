package types

import "time"

// EmergencyType represents the kind of emergency reported with an SOS.
type EmergencyType string

const (
	EmergencyMedical  EmergencyType = "medical"
	EmergencyAccident EmergencyType = "accident"
	EmergencyFire     EmergencyType = "fire"
	EmergencyPolice   EmergencyType = "police"
	EmergencyGeneral  EmergencyType = "general"
)

// IsValid reports whether the emergency type is a known value.
func (t EmergencyType) IsValid() bool {
	switch t {
	case EmergencyMedical, EmergencyAccident, EmergencyFire, EmergencyPolice, EmergencyGeneral:
		return true
	}
	return false
}

// SOSStatus represents SOS record status values.
type SOSStatus string

const (
	SOSActive    SOSStatus = "active"
	SOSResponded SOSStatus = "responded"
	SOSResolved  SOSStatus = "resolved"
	SOSCancelled SOSStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s SOSStatus) Terminal() bool {
	return s == SOSResolved || s == SOSCancelled
}

// CallStatus represents the outcome of a single emergency notification attempt.
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallConnected CallStatus = "connected"
	CallNotified  CallStatus = "notified"
	CallFailed    CallStatus = "failed"
)

// CallLog records one attempt in the emergency notification cascade.
type CallLog struct {
	Service  string     `json:"service"`
	Number   string     `json:"number,omitempty"`
	CalledAt time.Time  `json:"called_at"`
	Status   CallStatus `json:"status"`
	Notes    string     `json:"notes,omitempty"`
}

// SOS represents an emergency signal. Records are created on trigger, mutated
// only by status transitions and call-log appends, and never deleted; they
// double as an audit trail.
type SOS struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	Location      GeoPoint      `json:"location"`
	Address       string        `json:"address,omitempty" db:"address"`
	EmergencyType EmergencyType `json:"emergency_type" db:"emergency_type"`
	Description   string        `json:"description,omitempty" db:"description"`
	Language      Language      `json:"language" db:"language"`
	Status        SOSStatus     `json:"status" db:"status"`
	Priority      string        `json:"priority" db:"priority"`
	CallLogs      []CallLog     `json:"call_logs"`
	ResponseTime  *time.Time    `json:"response_time,omitempty" db:"response_time"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// PriorityCritical is the fixed priority assigned to every SOS record.
const PriorityCritical = "critical"

// EmergencyService identifies one dialable emergency service.
type EmergencyService struct {
	Name   string `json:"name"`
	NameTa string `json:"name_ta"`
	Number string `json:"number"`
}
