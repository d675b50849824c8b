package profile

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// PostgresRepository implements ProfileRepository using PostgreSQL. The
// list-shaped fields live in JSONB columns.
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new profile repository.
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log}
}

var _ interfaces.ProfileRepository = (*PostgresRepository)(nil)

const profileSelect = `
	SELECT id, user_id, qr_code, medical_history, allergies, current_medications,
		   COALESCE(blood_group, ''), emergency_contact, created_at, updated_at
	FROM patient_profiles`

// CreateProfile inserts a new profile. The unique user constraint makes
// concurrent first-access creation safe.
func (r *PostgresRepository) CreateProfile(p *types.PatientProfile) error {
	history, allergies, medications, emergency, err := marshalProfileFields(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO patient_profiles (
			id, user_id, qr_code, medical_history, allergies, current_medications,
			blood_group, emergency_contact, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)`

	_, err = r.db.Exec(query,
		p.ID, p.UserID, p.QRCode, history, allergies, medications,
		p.BloodGroup, emergency, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create patient profile")
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

// GetProfileByUserID retrieves the user's profile.
func (r *PostgresRepository) GetProfileByUserID(userID string) (*types.PatientProfile, error) {
	return r.getProfile(profileSelect+` WHERE user_id = $1`, userID)
}

// GetProfileByQRCode resolves a scanned code, including the patient record
// the scanning doctor needs.
func (r *PostgresRepository) GetProfileByQRCode(code string) (*types.PatientProfile, error) {
	profile, err := r.getProfile(profileSelect+` WHERE qr_code = $1`, code)
	if err != nil || profile == nil {
		return profile, err
	}

	user := &types.User{}
	err = r.db.QueryRow(`
		SELECT id, mobile, name, language, is_verified, last_login, created_at, updated_at
		FROM users WHERE id = $1`, profile.UserID).Scan(
		&user.ID, &user.Mobile, &user.Name, &user.Language, &user.IsVerified,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get profile owner: %w", err)
	}
	if err == nil {
		profile.User = user
	}
	return profile, nil
}

// UpdateProfile persists the editable fields.
func (r *PostgresRepository) UpdateProfile(p *types.PatientProfile) error {
	history, allergies, medications, emergency, err := marshalProfileFields(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE patient_profiles
		SET medical_history = $2,
			allergies = $3,
			current_medications = $4,
			blood_group = NULLIF($5, ''),
			emergency_contact = $6,
			updated_at = $7
		WHERE id = $1`

	result, err := r.db.Exec(query,
		p.ID, history, allergies, medications, p.BloodGroup, emergency, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("patient profile %s not found", p.ID)
	}
	return nil
}

func (r *PostgresRepository) getProfile(query string, args ...interface{}) (*types.PatientProfile, error) {
	p := &types.PatientProfile{}
	var history, allergies, medications []byte
	var emergency sql.NullString

	err := r.db.QueryRow(query, args...).Scan(
		&p.ID, &p.UserID, &p.QRCode, &history, &allergies, &medications,
		&p.BloodGroup, &emergency, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient profile: %w", err)
	}

	if err := json.Unmarshal(history, &p.MedicalHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal medical history: %w", err)
	}
	if err := json.Unmarshal(allergies, &p.Allergies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allergies: %w", err)
	}
	if err := json.Unmarshal(medications, &p.Medications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal medications: %w", err)
	}
	if emergency.Valid && emergency.String != "" {
		contact := &types.EmergencyContact{}
		if err := json.Unmarshal([]byte(emergency.String), contact); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emergency contact: %w", err)
		}
		p.Emergency = contact
	}
	return p, nil
}

func marshalProfileFields(p *types.PatientProfile) (history, allergies, medications []byte, emergency interface{}, err error) {
	if history, err = json.Marshal(p.MedicalHistory); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal medical history: %w", err)
	}
	if allergies, err = json.Marshal(p.Allergies); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal allergies: %w", err)
	}
	if medications, err = json.Marshal(p.Medications); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal medications: %w", err)
	}
	if p.Emergency != nil {
		raw, mErr := json.Marshal(p.Emergency)
		if mErr != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal emergency contact: %w", mErr)
		}
		emergency = raw
	}
	return history, allergies, medications, emergency, nil
}
