package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/domain"
)

// UserRepository handles user data access
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, phone, name, password_hash, role, is_verified, default_space_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.SQL.ExecContext(ctx, query,
		user.ID,
		user.Phone,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.IsVerified,
		user.DefaultSpaceID,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		if r.db.isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE phone = ?`, phone)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, phone, name, password_hash, role, is_verified, default_space_id, created_at
		FROM users
	` + where

	var user domain.User
	var role string
	err := r.db.SQL.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Phone,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.IsVerified,
		&user.DefaultSpaceID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.UserRole(role)
	return &user, nil
}

// ListIDs returns the id of every user, oldest first
func (r *UserRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// AssignDefaultSpace sets the default space when unset or dangling
func (r *UserRepository) AssignDefaultSpace(ctx context.Context, userID, spaceID uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET default_space_id = ?
		WHERE id = ?
		  AND (default_space_id IS NULL
		       OR NOT EXISTS (SELECT 1 FROM spaces s WHERE s.id = users.default_space_id))
	`

	res, err := r.db.SQL.ExecContext(ctx, query, spaceID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to assign default space: %w", err)
	}

	return affected(res)
}
