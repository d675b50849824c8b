package consult

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// PostgresRepository implements ConsultRepository using PostgreSQL.
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new consult repository.
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log}
}

// GetHospitalByID retrieves a hospital by id.
func (r *PostgresRepository) GetHospitalByID(id string) (*types.Hospital, error) {
	query := `
		SELECT id, name, COALESCE(name_ta, ''), COALESCE(address, ''), latitude, longitude,
			   COALESCE(contact, ''), specialties, rating, emergency_services, is_active
		FROM hospitals WHERE id = $1`

	return r.scanHospital(r.db.QueryRow(query, id))
}

// GetHospitals retrieves active hospitals, optionally limited to a radius
// around a point. Distance filtering uses a bounding box in SQL and a
// haversine refinement in code.
func (r *PostgresRepository) GetHospitals(filters *types.HospitalFilters) ([]*types.Hospital, error) {
	query := `
		SELECT id, name, COALESCE(name_ta, ''), COALESCE(address, ''), latitude, longitude,
			   COALESCE(contact, ''), specialties, rating, emergency_services, is_active
		FROM hospitals WHERE is_active = TRUE`
	args := []interface{}{}

	if filters != nil && filters.Near != nil && filters.RadiusKm > 0 {
		// One degree of latitude is roughly 111km.
		delta := filters.RadiusKm / 111.0
		query += ` AND latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`
		args = append(args,
			filters.Near.Latitude-delta, filters.Near.Latitude+delta,
			filters.Near.Longitude-delta, filters.Near.Longitude+delta)
	}

	query += ` ORDER BY rating DESC`
	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []*types.Hospital
	for rows.Next() {
		h, err := r.scanHospitalRows(rows)
		if err != nil {
			return nil, err
		}
		if filters != nil && filters.Near != nil && filters.RadiusKm > 0 {
			if filters.Near.DistanceKm(h.Location) > filters.RadiusKm {
				continue
			}
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, rows.Err()
}

// GetDoctorByID retrieves a doctor with their hospital attached.
func (r *PostgresRepository) GetDoctorByID(id string) (*types.Doctor, error) {
	query := `
		SELECT id, hospital_id, name, specialization, COALESCE(specialization_ta, ''),
			   qualifications, experience_years, languages, availability,
			   consultation_fee, rating, total_consultations, is_active
		FROM doctors WHERE id = $1`

	doctor, err := r.scanDoctor(r.db.QueryRow(query, id))
	if err != nil || doctor == nil {
		return doctor, err
	}

	hospital, err := r.GetHospitalByID(doctor.HospitalID)
	if err != nil {
		return nil, err
	}
	doctor.Hospital = hospital
	return doctor, nil
}

// GetDoctors retrieves active doctors matching the filters.
func (r *PostgresRepository) GetDoctors(filters *types.DoctorFilters) ([]*types.Doctor, error) {
	query := `
		SELECT id, hospital_id, name, specialization, COALESCE(specialization_ta, ''),
			   qualifications, experience_years, languages, availability,
			   consultation_fee, rating, total_consultations, is_active
		FROM doctors WHERE is_active = TRUE`
	args := []interface{}{}
	argIndex := 1

	if filters != nil && filters.HospitalID != "" {
		query += fmt.Sprintf(` AND hospital_id = $%d`, argIndex)
		args = append(args, filters.HospitalID)
		argIndex++
	}

	if filters != nil && filters.Specialization != "" {
		query += fmt.Sprintf(` AND LOWER(specialization) = LOWER($%d)`, argIndex)
		args = append(args, filters.Specialization)
		argIndex++
	}

	query += ` ORDER BY rating DESC, total_consultations DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*types.Doctor
	for rows.Next() {
		d, err := r.scanDoctorRows(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// IncrementDoctorConsultations bumps the doctor's consultation counter.
func (r *PostgresRepository) IncrementDoctorConsultations(doctorID string) error {
	query := `UPDATE doctors SET total_consultations = total_consultations + 1 WHERE id = $1`
	if _, err := r.db.Exec(query, doctorID); err != nil {
		return fmt.Errorf("failed to increment consultation count: %w", err)
	}
	return nil
}

// CreateConsultation creates a new consultation record.
func (r *PostgresRepository) CreateConsultation(c *types.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, user_id, doctor_id, hospital_id, symptom_check_id, scheduled_at,
			status, type, meeting_id, meeting_link, fee, payment_status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(query,
		c.ID, c.UserID, c.DoctorID, c.HospitalID, nullIfEmpty(c.SymptomCheckID),
		c.ScheduledAt, c.Status, c.Type, nullIfEmpty(c.MeetingID), nullIfEmpty(c.MeetingLink),
		c.Fee, c.PaymentStatus, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create consultation")
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

// GetConsultationByID retrieves a consultation by id.
func (r *PostgresRepository) GetConsultationByID(id string) (*types.Consultation, error) {
	return r.getConsultation(`WHERE id = $1`, id)
}

// GetConsultationByMeetingID retrieves a consultation by its meeting id.
func (r *PostgresRepository) GetConsultationByMeetingID(meetingID string) (*types.Consultation, error) {
	return r.getConsultation(`WHERE meeting_id = $1`, meetingID)
}

func (r *PostgresRepository) getConsultation(where string, arg interface{}) (*types.Consultation, error) {
	query := `
		SELECT id, user_id, doctor_id, hospital_id, COALESCE(symptom_check_id::text, ''),
			   scheduled_at, status, type, COALESCE(meeting_id, ''), COALESCE(meeting_link, ''),
			   fee, payment_status, COALESCE(notes, ''), created_at, updated_at
		FROM consultations ` + where

	c := &types.Consultation{}
	err := r.db.QueryRow(query, arg).Scan(
		&c.ID, &c.UserID, &c.DoctorID, &c.HospitalID, &c.SymptomCheckID,
		&c.ScheduledAt, &c.Status, &c.Type, &c.MeetingID, &c.MeetingLink,
		&c.Fee, &c.PaymentStatus, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return c, nil
}

// GetConsultations retrieves consultations matching the filters, newest first.
func (r *PostgresRepository) GetConsultations(filters *types.ConsultationFilters) ([]*types.Consultation, error) {
	query := `
		SELECT id, user_id, doctor_id, hospital_id, COALESCE(symptom_check_id::text, ''),
			   scheduled_at, status, type, COALESCE(meeting_id, ''), COALESCE(meeting_link, ''),
			   fee, payment_status, COALESCE(notes, ''), created_at, updated_at
		FROM consultations`

	where, args := buildConsultationFilters(filters)
	query += where + ` ORDER BY scheduled_at DESC`

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	var consultations []*types.Consultation
	for rows.Next() {
		c := &types.Consultation{}
		err := rows.Scan(
			&c.ID, &c.UserID, &c.DoctorID, &c.HospitalID, &c.SymptomCheckID,
			&c.ScheduledAt, &c.Status, &c.Type, &c.MeetingID, &c.MeetingLink,
			&c.Fee, &c.PaymentStatus, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		consultations = append(consultations, c)
	}
	return consultations, rows.Err()
}

// CountConsultations counts consultations matching the filters.
func (r *PostgresRepository) CountConsultations(filters *types.ConsultationFilters) (int, error) {
	query := `SELECT COUNT(*) FROM consultations`
	where, args := buildConsultationFilters(filters)
	query += where

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return count, nil
}

func buildConsultationFilters(filters *types.ConsultationFilters) (string, []interface{}) {
	if filters == nil {
		return "", nil
	}

	conds := []string{}
	args := []interface{}{}
	argIndex := 1

	if filters.UserID != "" {
		conds = append(conds, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, filters.UserID)
		argIndex++
	}
	if filters.DoctorID != "" {
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", argIndex))
		args = append(args, filters.DoctorID)
		argIndex++
	}
	if filters.Status != "" {
		conds = append(conds, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetConflictingConsultations returns non-terminal consultations for the
// doctor scheduled within the window around the candidate instant.
func (r *PostgresRepository) GetConflictingConsultations(doctorID string, around time.Time, window time.Duration) ([]*types.Consultation, error) {
	query := `
		SELECT id, user_id, doctor_id, hospital_id, COALESCE(symptom_check_id::text, ''),
			   scheduled_at, status, type, COALESCE(meeting_id, ''), COALESCE(meeting_link, ''),
			   fee, payment_status, COALESCE(notes, ''), created_at, updated_at
		FROM consultations
		WHERE doctor_id = $1
		  AND status IN ('scheduled', 'ongoing')
		  AND scheduled_at >= $2 AND scheduled_at <= $3`

	rows, err := r.db.Query(query, doctorID, around.Add(-window), around.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicting consultations: %w", err)
	}
	defer rows.Close()

	var conflicts []*types.Consultation
	for rows.Next() {
		c := &types.Consultation{}
		err := rows.Scan(
			&c.ID, &c.UserID, &c.DoctorID, &c.HospitalID, &c.SymptomCheckID,
			&c.ScheduledAt, &c.Status, &c.Type, &c.MeetingID, &c.MeetingLink,
			&c.Fee, &c.PaymentStatus, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

// TransitionConsultation atomically moves a consultation from an allowed
// status to the target status. The status check and update happen in one
// statement so concurrent transitions cannot race.
func (r *PostgresRepository) TransitionConsultation(id, userID string, allowed []types.ConsultationStatus, to types.ConsultationStatus) (bool, error) {
	placeholders := make([]string, len(allowed))
	args := []interface{}{to, id, userID}
	for i, status := range allowed {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, status)
	}

	query := fmt.Sprintf(`
		UPDATE consultations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status IN (%s)`,
		strings.Join(placeholders, ", "))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkNoShows transitions stale scheduled consultations to no-show.
func (r *PostgresRepository) MarkNoShows(cutoff time.Time) (int64, error) {
	query := `
		UPDATE consultations SET status = 'no-show', updated_at = NOW()
		WHERE status = 'scheduled' AND scheduled_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark no-shows: %w", err)
	}
	return result.RowsAffected()
}

// CreateRequest creates a new consultation request.
func (r *PostgresRepository) CreateRequest(req *types.ConsultationRequest) error {
	query := `
		INSERT INTO consultation_requests (
			id, request_id, patient_id, doctor_id, hospital_id, scheduled_date,
			time_slot, symptoms, status, consultation_fee, payment_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query,
		req.ID, req.RequestID, req.PatientID, req.DoctorID, nullIfEmpty(req.HospitalID),
		req.ScheduledDate, req.TimeSlot, req.Symptoms, req.Status,
		req.ConsultationFee, req.PaymentStatus, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create consultation request: %w", err)
	}
	return nil
}

// GetRequestByRequestID retrieves a request by its public request id.
func (r *PostgresRepository) GetRequestByRequestID(requestID string) (*types.ConsultationRequest, error) {
	query := requestSelect + ` WHERE request_id = $1`

	req := &types.ConsultationRequest{}
	err := r.db.QueryRow(query, requestID).Scan(requestFields(req)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation request: %w", err)
	}
	return req, nil
}

// GetRequestsByPatient retrieves a patient's requests, newest first.
func (r *PostgresRepository) GetRequestsByPatient(patientID string) ([]*types.ConsultationRequest, error) {
	return r.queryRequests(requestSelect+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
}

// GetPendingRequests retrieves a doctor's pending requests, oldest first.
func (r *PostgresRepository) GetPendingRequests(doctorID string) ([]*types.ConsultationRequest, error) {
	return r.queryRequests(requestSelect+` WHERE doctor_id = $1 AND status = 'pending' ORDER BY created_at ASC`, doctorID)
}

// UpdateRequest updates a request's status and allocation fields.
func (r *PostgresRepository) UpdateRequest(req *types.ConsultationRequest) error {
	query := `
		UPDATE consultation_requests
		SET status = $2, meeting_id = $3, meeting_link = $4, rejection_reason = $5,
			payment_status = $6, updated_at = $7
		WHERE id = $1`

	result, err := r.db.Exec(query,
		req.ID, req.Status, nullIfEmpty(req.MeetingID), nullIfEmpty(req.MeetingLink),
		req.RejectionReason, req.PaymentStatus, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update consultation request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("consultation request not found: %s", req.ID)
	}
	return nil
}

const requestSelect = `
	SELECT id, request_id, patient_id, doctor_id, COALESCE(hospital_id::text, ''),
		   scheduled_date, time_slot, COALESCE(symptoms, ''), status,
		   COALESCE(meeting_id, ''), COALESCE(meeting_link, ''), rejection_reason,
		   consultation_fee, payment_status, created_at, updated_at
	FROM consultation_requests`

func requestFields(req *types.ConsultationRequest) []interface{} {
	return []interface{}{
		&req.ID, &req.RequestID, &req.PatientID, &req.DoctorID, &req.HospitalID,
		&req.ScheduledDate, &req.TimeSlot, &req.Symptoms, &req.Status,
		&req.MeetingID, &req.MeetingLink, &req.RejectionReason,
		&req.ConsultationFee, &req.PaymentStatus, &req.CreatedAt, &req.UpdatedAt,
	}
}

func (r *PostgresRepository) queryRequests(query string, args ...interface{}) ([]*types.ConsultationRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultation requests: %w", err)
	}
	defer rows.Close()

	var requests []*types.ConsultationRequest
	for rows.Next() {
		req := &types.ConsultationRequest{}
		if err := rows.Scan(requestFields(req)...); err != nil {
			return nil, fmt.Errorf("failed to scan consultation request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepository) scanHospital(row *sql.Row) (*types.Hospital, error) {
	h, err := scanHospitalFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

func (r *PostgresRepository) scanHospitalRows(rows *sql.Rows) (*types.Hospital, error) {
	return scanHospitalFrom(rows)
}

func scanHospitalFrom(s scanner) (*types.Hospital, error) {
	h := &types.Hospital{}
	var nameTa string
	var specialties []byte

	err := s.Scan(
		&h.ID, &h.Name, &nameTa, &h.Address, &h.Location.Latitude, &h.Location.Longitude,
		&h.Contact, &specialties, &h.Rating, &h.EmergencyServices, &h.IsActive)
	if err != nil {
		return nil, err
	}

	h.NameTranslations = types.Translation{En: h.Name, Ta: nameTa}
	if err := json.Unmarshal(specialties, &h.Specialties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hospital specialties: %w", err)
	}
	return h, nil
}

func (r *PostgresRepository) scanDoctor(row *sql.Row) (*types.Doctor, error) {
	d, err := scanDoctorFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *PostgresRepository) scanDoctorRows(rows *sql.Rows) (*types.Doctor, error) {
	return scanDoctorFrom(rows)
}

func scanDoctorFrom(s scanner) (*types.Doctor, error) {
	d := &types.Doctor{}
	var specializationTa string
	var qualifications, languages, availability []byte

	err := s.Scan(
		&d.ID, &d.HospitalID, &d.Name, &d.Specialization, &specializationTa,
		&qualifications, &d.ExperienceYears, &languages, &availability,
		&d.ConsultationFee, &d.Rating, &d.TotalConsultations, &d.IsActive)
	if err != nil {
		return nil, err
	}

	d.SpecializationTranslations = types.Translation{En: d.Specialization, Ta: specializationTa}
	if err := json.Unmarshal(qualifications, &d.Qualifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal doctor qualifications: %w", err)
	}
	if err := json.Unmarshal(languages, &d.Languages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal doctor languages: %w", err)
	}
	if err := json.Unmarshal(availability, &d.Availability); err != nil {
		return nil, fmt.Errorf("failed to unmarshal doctor availability: %w", err)
	}
	return d, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
