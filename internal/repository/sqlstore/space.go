package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/domain"
)

const spaceColumns = `
	s.id, s.name, s.slug, s.description, s.logo, s.type, s.invite_code, s.owner_id, s.created_at,
	(SELECT COUNT(*) FROM space_members m WHERE m.space_id = s.id) AS members_count
`

const insertSpace = ` INTO spaces (id, name, slug, description, logo, type, invite_code, owner_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SpaceRepository handles space data access
type SpaceRepository struct {
	db *DB
}

// NewSpaceRepository creates a new space repository
func NewSpaceRepository(db *DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

func spaceArgs(space *domain.Space) []any {
	return []any{
		space.ID,
		space.Name,
		space.Slug,
		space.Description,
		space.Logo,
		string(space.Type),
		space.InviteCode,
		space.OwnerID,
		space.CreatedAt.UTC(),
	}
}

// Create inserts a space together with its owner membership
func (r *SpaceRepository) Create(ctx context.Context, space *domain.Space, owner *domain.SpaceMember) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT"+insertSpace, spaceArgs(space)...); err != nil {
		if r.db.isUniqueViolation(err) {
			return fmt.Errorf("failed to create space: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to create space: %w", err)
	}

	if owner != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO space_members (id, space_id, user_id, role, joined_at)
			VALUES (?, ?, ?, ?, ?)
		`, owner.ID, owner.SpaceID, owner.UserID, string(owner.Role), owner.JoinedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit space: %w", err)
	}

	return nil
}

// InsertIfAbsent inserts a space unless its id or slug already exists
func (r *SpaceRepository) InsertIfAbsent(ctx context.Context, space *domain.Space) (bool, error) {
	res, err := r.db.SQL.ExecContext(ctx, r.db.dialect.InsertIgnore+insertSpace, spaceArgs(space)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert space: %w", err)
	}
	return affected(res)
}

// GetByID retrieves a space by ID
func (r *SpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	return r.getOne(ctx, `SELECT `+spaceColumns+` FROM spaces s WHERE s.id = ?`, id)
}

// GetBySlug retrieves a space by its exact slug
func (r *SpaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	return r.getOne(ctx, `SELECT `+spaceColumns+` FROM spaces s WHERE s.slug = ?`, slug)
}

func (r *SpaceRepository) getOne(ctx context.Context, query string, arg any) (*domain.Space, error) {
	space, err := scanSpace(r.db.SQL.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return space, nil
}

// Update updates the provided fields of a space
func (r *SpaceRepository) Update(ctx context.Context, id uuid.UUID, update domain.SpaceUpdate) error {
	var spaceType *string
	if update.Type != nil {
		t := string(*update.Type)
		spaceType = &t
	}

	query := `
		UPDATE spaces
		SET name = COALESCE(?, name),
		    description = COALESCE(?, description),
		    type = COALESCE(?, type),
		    logo = COALESCE(?, logo)
		WHERE id = ?
	`

	_, err := r.db.SQL.ExecContext(ctx, query, update.Name, update.Description, spaceType, update.Logo, id)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}

	return nil
}

// SetInviteCode replaces the invite code of a space
func (r *SpaceRepository) SetInviteCode(ctx context.Context, id uuid.UUID, code string) error {
	_, err := r.db.SQL.ExecContext(ctx, `UPDATE spaces SET invite_code = ? WHERE id = ?`, code, id)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
	}
	return nil
}

// List retrieves a page of spaces matching the filter, newest first
func (r *SpaceRepository) List(ctx context.Context, filter domain.SpaceFilter) ([]domain.Space, error) {
	where, args := spaceWhere(r.db.dialect, filter)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + spaceColumns + ` FROM spaces s ` + where + `
		ORDER BY s.created_at DESC, s.id
		LIMIT ? OFFSET ?`

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []domain.Space
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, *space)
	}

	return spaces, rows.Err()
}

// Count counts spaces matching the filter
func (r *SpaceRepository) Count(ctx context.Context, filter domain.SpaceFilter) (int, error) {
	where, args := spaceWhere(r.db.dialect, filter)

	var count int
	if err := r.db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM spaces s `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count spaces: %w", err)
	}

	return count, nil
}

func spaceWhere(dialect Dialect, filter domain.SpaceFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Type != nil {
		conds = append(conds, "s.type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		conds = append(conds, fmt.Sprintf(
			"(INSTR(%[1]s(s.name), ?) > 0 OR INSTR(%[1]s(COALESCE(s.description, '')), ?) > 0)",
			dialect.Lower,
		))
		args = append(args, search, search)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpace(row scanner) (*domain.Space, error) {
	var space domain.Space
	var spaceType string

	err := row.Scan(
		&space.ID,
		&space.Name,
		&space.Slug,
		&space.Description,
		&space.Logo,
		&spaceType,
		&space.InviteCode,
		&space.OwnerID,
		&space.CreatedAt,
		&space.MembersCount,
	)
	if err != nil {
		return nil, err
	}

	space.Type = domain.SpaceType(spaceType)
	return &space, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
