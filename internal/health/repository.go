package health

import (
	"database/sql"
	"fmt"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// PostgresRepository implements SymptomCheckRepository using PostgreSQL.
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new symptom-check repository.
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log}
}

var _ interfaces.SymptomCheckRepository = (*PostgresRepository)(nil)

const symptomCheckSelect = `
	SELECT id, user_id, symptoms, advice, language, fallback, created_at
	FROM symptom_checks`

// CreateSymptomCheck inserts a new symptom-check record.
func (r *PostgresRepository) CreateSymptomCheck(check *types.SymptomCheck) error {
	query := `
		INSERT INTO symptom_checks (id, user_id, symptoms, advice, language, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		check.ID, check.UserID, check.Symptoms, check.Advice,
		check.Language, check.Fallback, check.CreatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create symptom check")
		return fmt.Errorf("failed to create symptom check: %w", err)
	}
	return nil
}

// GetSymptomCheckByID retrieves a symptom check by id.
func (r *PostgresRepository) GetSymptomCheckByID(id string) (*types.SymptomCheck, error) {
	check := &types.SymptomCheck{}
	err := r.db.QueryRow(symptomCheckSelect+` WHERE id = $1`, id).Scan(
		&check.ID, &check.UserID, &check.Symptoms, &check.Advice,
		&check.Language, &check.Fallback, &check.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symptom check: %w", err)
	}
	return check, nil
}

// GetSymptomChecks retrieves the user's recent checks, newest first.
func (r *PostgresRepository) GetSymptomChecks(userID string, limit int) ([]*types.SymptomCheck, error) {
	rows, err := r.db.Query(symptomCheckSelect+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptom checks: %w", err)
	}
	defer rows.Close()

	var checks []*types.SymptomCheck
	for rows.Next() {
		check := &types.SymptomCheck{}
		if err := rows.Scan(
			&check.ID, &check.UserID, &check.Symptoms, &check.Advice,
			&check.Language, &check.Fallback, &check.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan symptom check: %w", err)
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}
