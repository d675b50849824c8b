package sos

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

// PostgresRepository implements SOSRepository using PostgreSQL. Call logs
// live in a JSONB column and are only ever appended to.
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new SOS repository.
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log}
}

const sosSelect = `
	SELECT id, user_id, latitude, longitude, COALESCE(address, ''), emergency_type,
		   COALESCE(description, ''), language, status, priority, call_logs,
		   response_time, resolved_at, created_at, updated_at
	FROM sos_records`

// CreateSOS inserts a new SOS record.
func (r *PostgresRepository) CreateSOS(s *types.SOS) error {
	callLogs, err := json.Marshal(s.CallLogs)
	if err != nil {
		return fmt.Errorf("failed to marshal call logs: %w", err)
	}

	query := `
		INSERT INTO sos_records (
			id, user_id, latitude, longitude, address, emergency_type, description,
			language, status, priority, call_logs, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(query,
		s.ID, s.UserID, s.Location.Latitude, s.Location.Longitude, s.Address,
		s.EmergencyType, s.Description, s.Language, s.Status, s.Priority,
		callLogs, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create SOS record")
		return fmt.Errorf("failed to create SOS record: %w", err)
	}
	return nil
}

// GetSOSByID retrieves an SOS record owned by the user.
func (r *PostgresRepository) GetSOSByID(id, userID string) (*types.SOS, error) {
	return r.getSOS(sosSelect+` WHERE id = $1 AND user_id = $2`, id, userID)
}

// GetActiveSOS retrieves the user's most recent active record, if any.
func (r *PostgresRepository) GetActiveSOS(userID string) (*types.SOS, error) {
	return r.getSOS(sosSelect+` WHERE user_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *PostgresRepository) getSOS(query string, args ...interface{}) (*types.SOS, error) {
	s := &types.SOS{}
	var callLogs []byte

	err := r.db.QueryRow(query, args...).Scan(
		&s.ID, &s.UserID, &s.Location.Latitude, &s.Location.Longitude, &s.Address,
		&s.EmergencyType, &s.Description, &s.Language, &s.Status, &s.Priority,
		&callLogs, &s.ResponseTime, &s.ResolvedAt, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get SOS record: %w", err)
	}

	if err := json.Unmarshal(callLogs, &s.CallLogs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal call logs: %w", err)
	}
	return s, nil
}

// GetSOSHistory retrieves a page of the user's SOS records, newest first,
// along with the total count.
func (r *PostgresRepository) GetSOSHistory(userID string, limit, offset int) ([]*types.SOS, int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sos_records WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count SOS records: %w", err)
	}

	query := sosSelect + ` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query SOS records: %w", err)
	}
	defer rows.Close()

	var records []*types.SOS
	for rows.Next() {
		s := &types.SOS{}
		var callLogs []byte
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Location.Latitude, &s.Location.Longitude, &s.Address,
			&s.EmergencyType, &s.Description, &s.Language, &s.Status, &s.Priority,
			&callLogs, &s.ResponseTime, &s.ResolvedAt, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan SOS record: %w", err)
		}
		if err := json.Unmarshal(callLogs, &s.CallLogs); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal call logs: %w", err)
		}
		records = append(records, s)
	}
	return records, total, rows.Err()
}

// AppendCallLogs appends entries to the record's call log in place.
func (r *PostgresRepository) AppendCallLogs(id string, logs []types.CallLog) error {
	data, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("failed to marshal call logs: %w", err)
	}

	query := `
		UPDATE sos_records
		SET call_logs = call_logs || $2::jsonb, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, id, data)
	if err != nil {
		return fmt.Errorf("failed to append call logs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SOS record not found: %s", id)
	}
	return nil
}

// TransitionStatus atomically moves a record from an allowed status to the
// target status, stamping response_time or resolved_at as appropriate.
func (r *PostgresRepository) TransitionStatus(id, userID string, allowed []types.SOSStatus, to types.SOSStatus, at time.Time) (*types.SOS, error) {
	placeholders := make([]string, len(allowed))
	args := []interface{}{to, at, id, userID}
	for i, status := range allowed {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, status)
	}

	timestampCol := ""
	switch to {
	case types.SOSResponded:
		timestampCol = ", response_time = $2"
	case types.SOSResolved, types.SOSCancelled:
		timestampCol = ", resolved_at = $2"
	}

	query := fmt.Sprintf(`
		UPDATE sos_records SET status = $1, updated_at = $2%s
		WHERE id = $3 AND user_id = $4 AND status IN (%s)
		RETURNING id`,
		timestampCol, strings.Join(placeholders, ", "))

	var returnedID string
	err := r.db.QueryRow(query, args...).Scan(&returnedID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition SOS status: %w", err)
	}

	return r.GetSOSByID(id, userID)
}

// ResolveStale force-resolves active records created before the cutoff.
func (r *PostgresRepository) ResolveStale(cutoff time.Time) (int64, error) {
	query := `
		UPDATE sos_records
		SET status = 'resolved', resolved_at = NOW(), updated_at = NOW()
		WHERE status = 'active' AND created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve stale SOS records: %w", err)
	}
	return result.RowsAffected()
}
