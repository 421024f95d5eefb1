package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/community-market/internal/domain"
)

// MemberRepository handles space membership data access
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// AddIfAbsent adds a member unless (space, user) already exists
func (r *MemberRepository) AddIfAbsent(ctx context.Context, member *domain.SpaceMember) (bool, error) {
	query := `
		INSERT INTO space_members (id, space_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (space_id, user_id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		member.ID,
		member.SpaceID,
		member.UserID,
		string(member.Role),
		member.JoinedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Get retrieves a space member
func (r *MemberRepository) Get(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	query := `
		SELECT id, space_id, user_id, role, joined_at
		FROM space_members
		WHERE space_id = $1 AND user_id = $2
	`

	var member domain.SpaceMember
	var role string
	err := r.db.Pool.QueryRow(ctx, query, spaceID, userID).Scan(
		&member.ID,
		&member.SpaceID,
		&member.UserID,
		&role,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	member.Role = domain.Role(role)
	return &member, nil
}

// UpdateRole changes a member's role
func (r *MemberRepository) UpdateRole(ctx context.Context, spaceID, userID uuid.UUID, role domain.Role) (bool, error) {
	query := `UPDATE space_members SET role = $3 WHERE space_id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, spaceID, userID, string(role))
	if err != nil {
		return false, fmt.Errorf("failed to update member role: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Remove removes a member from a space
func (r *MemberRepository) Remove(ctx context.Context, spaceID, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM space_members WHERE space_id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, spaceID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// List retrieves a page of members joined with their public user info
func (r *MemberRepository) List(ctx context.Context, spaceID uuid.UUID, limit, offset int) ([]domain.SpaceMember, error) {
	query := `
		SELECT m.id, m.space_id, m.user_id, m.role, m.joined_at, u.name
		FROM space_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.space_id = $1
		ORDER BY m.joined_at, m.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, spaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []domain.SpaceMember
	for rows.Next() {
		var member domain.SpaceMember
		var role, name string

		if err := rows.Scan(
			&member.ID,
			&member.SpaceID,
			&member.UserID,
			&role,
			&member.JoinedAt,
			&name,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		member.Role = domain.Role(role)
		member.User = &domain.UserPublic{ID: member.UserID, Name: name}
		members = append(members, member)
	}

	return members, rows.Err()
}

// Count counts the members of a space
func (r *MemberRepository) Count(ctx context.Context, spaceID uuid.UUID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM space_members WHERE space_id = $1`, spaceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// ListByUser retrieves every membership of a user
func (r *MemberRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SpaceMember, error) {
	query := `
		SELECT id, space_id, user_id, role, joined_at
		FROM space_members
		WHERE user_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []domain.SpaceMember
	for rows.Next() {
		var member domain.SpaceMember
		var role string

		if err := rows.Scan(&member.ID, &member.SpaceID, &member.UserID, &role, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}

		member.Role = domain.Role(role)
		members = append(members, member)
	}

	return members, rows.Err()
}
