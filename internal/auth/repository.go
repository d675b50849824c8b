package auth

import (
	"database/sql"
	"fmt"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *database.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(db *database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a new user record.
func (r *PostgresUserRepository) CreateUser(user *types.User) error {
	query := `
		INSERT INTO users (id, mobile, name, language, is_verified, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		user.ID, user.Mobile, user.Name, user.Language,
		user.IsVerified, user.LastLogin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their id.
func (r *PostgresUserRepository) GetUserByID(id string) (*types.User, error) {
	query := `
		SELECT id, mobile, name, language, is_verified, last_login, created_at, updated_at
		FROM users WHERE id = $1`

	return r.scanUser(r.db.QueryRow(query, id))
}

// GetUserByMobile retrieves a user by their mobile number.
func (r *PostgresUserRepository) GetUserByMobile(mobile string) (*types.User, error) {
	query := `
		SELECT id, mobile, name, language, is_verified, last_login, created_at, updated_at
		FROM users WHERE mobile = $1`

	return r.scanUser(r.db.QueryRow(query, mobile))
}

// UpdateUser updates a user's mutable fields.
func (r *PostgresUserRepository) UpdateUser(user *types.User) error {
	query := `
		UPDATE users
		SET name = $2, language = $3, is_verified = $4, last_login = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.Exec(query,
		user.ID, user.Name, user.Language, user.IsVerified, user.LastLogin, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*types.User, error) {
	user := &types.User{}
	err := row.Scan(
		&user.ID, &user.Mobile, &user.Name, &user.Language,
		&user.IsVerified, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
