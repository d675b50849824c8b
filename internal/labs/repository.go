package labs

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// PostgresRepository implements LabsRepository using PostgreSQL. Patient
// details live in a JSONB column since the subject of a booking may differ
// from the account holder.
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new labs repository.
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log}
}

var _ interfaces.LabsRepository = (*PostgresRepository)(nil)

// GetLabTests lists active tests, optionally filtered by category.
func (r *PostgresRepository) GetLabTests(category string) ([]*types.LabTest, error) {
	query := `
		SELECT id, name, COALESCE(name_ta, ''), COALESCE(category, ''), price, home_collection, is_active
		FROM lab_tests
		WHERE is_active = TRUE`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab tests: %w", err)
	}
	defer rows.Close()

	var tests []*types.LabTest
	for rows.Next() {
		t := &types.LabTest{}
		var nameTa string
		if err := rows.Scan(&t.ID, &t.Name, &nameTa, &t.Category, &t.Price, &t.HomeCollection, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan lab test: %w", err)
		}
		t.NameTranslations = types.Translation{En: t.Name, Ta: nameTa}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// GetLabTestByID retrieves one test.
func (r *PostgresRepository) GetLabTestByID(id string) (*types.LabTest, error) {
	t := &types.LabTest{}
	var nameTa string
	err := r.db.QueryRow(`
		SELECT id, name, COALESCE(name_ta, ''), COALESCE(category, ''), price, home_collection, is_active
		FROM lab_tests WHERE id = $1`, id).Scan(
		&t.ID, &t.Name, &nameTa, &t.Category, &t.Price, &t.HomeCollection, &t.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab test: %w", err)
	}
	t.NameTranslations = types.Translation{En: t.Name, Ta: nameTa}
	return t, nil
}

// GetLabs lists active labs. When a location filter is present the rows are
// narrowed by bounding box first and refined by great-circle distance.
func (r *PostgresRepository) GetLabs(filters *types.HospitalFilters) ([]*types.DiagnosticLab, error) {
	query := `
		SELECT id, name, COALESCE(address, ''), latitude, longitude, COALESCE(contact, ''), rating, is_active
		FROM diagnostic_labs
		WHERE is_active = TRUE`
	args := []interface{}{}

	if filters != nil && filters.Near != nil && filters.RadiusKm > 0 {
		// Rough degrees-per-km bounding box, refined in Go below.
		delta := filters.RadiusKm / 111.0
		query += fmt.Sprintf(` AND latitude BETWEEN $%d AND $%d AND longitude BETWEEN $%d AND $%d`,
			len(args)+1, len(args)+2, len(args)+3, len(args)+4)
		args = append(args,
			filters.Near.Latitude-delta, filters.Near.Latitude+delta,
			filters.Near.Longitude-delta, filters.Near.Longitude+delta)
	}
	query += ` ORDER BY rating DESC`
	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labs: %w", err)
	}
	defer rows.Close()

	var labs []*types.DiagnosticLab
	for rows.Next() {
		lab := &types.DiagnosticLab{}
		if err := rows.Scan(&lab.ID, &lab.Name, &lab.Address,
			&lab.Location.Latitude, &lab.Location.Longitude,
			&lab.Contact, &lab.Rating, &lab.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan lab: %w", err)
		}
		if filters != nil && filters.Near != nil && filters.RadiusKm > 0 {
			if filters.Near.DistanceKm(lab.Location) > filters.RadiusKm {
				continue
			}
		}
		labs = append(labs, lab)
	}
	return labs, rows.Err()
}

// GetLabByID retrieves one lab.
func (r *PostgresRepository) GetLabByID(id string) (*types.DiagnosticLab, error) {
	lab := &types.DiagnosticLab{}
	err := r.db.QueryRow(`
		SELECT id, name, COALESCE(address, ''), latitude, longitude, COALESCE(contact, ''), rating, is_active
		FROM diagnostic_labs WHERE id = $1`, id).Scan(
		&lab.ID, &lab.Name, &lab.Address,
		&lab.Location.Latitude, &lab.Location.Longitude,
		&lab.Contact, &lab.Rating, &lab.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return lab, nil
}

const bookingSelect = `
	SELECT id, booking_id, user_id, test_id, lab_id, booking_date, time_slot,
		   sample_type, patient_details, payment_status, booking_status,
		   COALESCE(report_url, ''), amount, created_at, updated_at
	FROM lab_bookings`

// CreateBooking inserts a new lab booking.
func (r *PostgresRepository) CreateBooking(b *types.LabBooking) error {
	details, err := json.Marshal(b.PatientDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal patient details: %w", err)
	}

	query := `
		INSERT INTO lab_bookings (
			id, booking_id, user_id, test_id, lab_id, booking_date, time_slot,
			sample_type, patient_details, payment_status, booking_status, amount,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.Exec(query,
		b.ID, b.BookingID, b.UserID, b.TestID, b.LabID, b.BookingDate, b.TimeSlot,
		b.SampleType, details, b.PaymentStatus, b.BookingStatus, b.Amount,
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create lab booking")
		return fmt.Errorf("failed to create lab booking: %w", err)
	}
	return nil
}

// GetBookingByID retrieves a booking owned by the user. The id may be either
// the row id or the public booking id.
func (r *PostgresRepository) GetBookingByID(id, userID string) (*types.LabBooking, error) {
	row := r.db.QueryRow(bookingSelect+` WHERE (id::text = $1 OR booking_id = $1) AND user_id = $2`, id, userID)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab booking: %w", err)
	}
	return b, nil
}

// GetBookings retrieves a page of the user's bookings, newest first.
func (r *PostgresRepository) GetBookings(userID string, limit, offset int) ([]*types.LabBooking, error) {
	rows, err := r.db.Query(bookingSelect+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*types.LabBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBookingStatus sets the pipeline status and, when non-empty, the
// report URL.
func (r *PostgresRepository) UpdateBookingStatus(id string, status types.BookingStatus, reportURL string) error {
	query := `
		UPDATE lab_bookings
		SET booking_status = $2,
			report_url = COALESCE(NULLIF($3, ''), report_url),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, id, status, reportURL)
	if err != nil {
		return fmt.Errorf("failed to update lab booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("lab booking %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (*types.LabBooking, error) {
	b := &types.LabBooking{}
	var details []byte

	err := s.Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.TestID, &b.LabID, &b.BookingDate,
		&b.TimeSlot, &b.SampleType, &details, &b.PaymentStatus, &b.BookingStatus,
		&b.ReportURL, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(details, &b.PatientDetails); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patient details: %w", err)
	}
	return b, nil
}
