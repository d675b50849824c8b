package interfaces

import "github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"

// LabsRepository defines the interface for diagnostic lab persistence.
type LabsRepository interface {
	GetLabTests(category string) ([]*types.LabTest, error)
	GetLabTestByID(id string) (*types.LabTest, error)
	GetLabs(filters *types.HospitalFilters) ([]*types.DiagnosticLab, error)
	GetLabByID(id string) (*types.DiagnosticLab, error)
	CreateBooking(b *types.LabBooking) error
	GetBookingByID(id, userID string) (*types.LabBooking, error)
	GetBookings(userID string, limit, offset int) ([]*types.LabBooking, error)
	UpdateBookingStatus(id string, status types.BookingStatus, reportURL string) error
}

// ProfileRepository defines the interface for QR-keyed patient profiles.
type ProfileRepository interface {
	CreateProfile(p *types.PatientProfile) error
	GetProfileByUserID(userID string) (*types.PatientProfile, error)
	GetProfileByQRCode(code string) (*types.PatientProfile, error)
	UpdateProfile(p *types.PatientProfile) error
}
