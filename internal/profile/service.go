// Package profile implements the QR-keyed patient medical profile. Each
// user gets one opaque code; a doctor scanning it sees the medical history,
// allergies, medications and emergency contact without needing the patient
// to log in.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Service implements QR profile management.
type Service struct {
	repo   interfaces.ProfileRepository
	logger *logger.Logger
}

// NewService creates the profile service.
func NewService(repo interfaces.ProfileRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// GetOrCreate returns the user's profile, creating an empty one with a fresh
// QR code on first access. Creation races resolve in the repository via the
// unique user constraint; the loser re-reads.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*types.PatientProfile, error) {
	profile, err := s.repo.GetProfileByUserID(userID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get profile", err)
	}
	if profile != nil {
		return profile, nil
	}

	now := time.Now().UTC()
	profile = &types.PatientProfile{
		ID:             uuid.New().String(),
		UserID:         userID,
		QRCode:         fmt.Sprintf("PATIENT-%s-%d", userID, now.Unix()),
		MedicalHistory: []types.MedicalCondition{},
		Allergies:      []string{},
		Medications:    []types.Medication{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateProfile(profile); err != nil {
		// A concurrent first access may have won the insert.
		existing, getErr := s.repo.GetProfileByUserID(userID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create profile", err)
	}

	s.logger.WithUserID(userID).Info("Patient profile created")
	return profile, nil
}

// UpdateInput carries the editable profile fields. Nil slices and pointers
// leave the stored value untouched.
type UpdateInput struct {
	MedicalHistory []types.MedicalCondition `json:"medical_history"`
	Allergies      []string                 `json:"allergies"`
	Medications    []types.Medication       `json:"current_medications"`
	BloodGroup     *string                  `json:"blood_group"`
	Emergency      *types.EmergencyContact  `json:"emergency_contact"`
}

// Update applies partial changes to the user's profile, creating it first if
// the user has never opened the profile screen.
func (s *Service) Update(ctx context.Context, userID string, in *UpdateInput) (*types.PatientProfile, error) {
	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.MedicalHistory != nil {
		profile.MedicalHistory = in.MedicalHistory
	}
	if in.Allergies != nil {
		profile.Allergies = in.Allergies
	}
	if in.Medications != nil {
		profile.Medications = in.Medications
	}
	if in.BloodGroup != nil {
		bg := strings.ToUpper(strings.TrimSpace(*in.BloodGroup))
		if bg != "" && !validBloodGroup(bg) {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid blood group", nil)
		}
		profile.BloodGroup = bg
	}
	if in.Emergency != nil {
		if strings.TrimSpace(in.Emergency.Name) == "" || strings.TrimSpace(in.Emergency.Phone) == "" {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				"emergency contact requires name and phone", nil)
		}
		profile.Emergency = in.Emergency
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(profile); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to update profile", err)
	}
	return profile, nil
}

// ScanQR resolves a scanned code to the patient's profile. Intended for
// doctors at the point of care; the response includes the patient record.
func (s *Service) ScanQR(ctx context.Context, code string) (*types.PatientProfile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "QR code is required", nil)
	}

	profile, err := s.repo.GetProfileByQRCode(code)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to scan QR code", err)
	}
	if profile == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "profile not found for QR code")
	}
	return profile, nil
}

var bloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

func validBloodGroup(bg string) bool {
	return bloodGroups[bg]
}
