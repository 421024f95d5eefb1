package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/community-market/internal/domain"
)

const spaceColumns = `
	s.id, s.name, s.slug, s.description, s.logo, s.type, s.invite_code, s.owner_id, s.created_at,
	(SELECT COUNT(*) FROM space_members m WHERE m.space_id = s.id) AS members_count
`

// SpaceRepository handles space data access
type SpaceRepository struct {
	db *DB
}

// NewSpaceRepository creates a new space repository
func NewSpaceRepository(db *DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

// Create inserts a space together with its owner membership
func (r *SpaceRepository) Create(ctx context.Context, space *domain.Space, owner *domain.SpaceMember) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO spaces (id, name, slug, description, logo, type, invite_code, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, query,
		space.ID,
		space.Name,
		space.Slug,
		space.Description,
		space.Logo,
		string(space.Type),
		space.InviteCode,
		space.OwnerID,
		space.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create space: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to create space: %w", err)
	}

	if owner != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO space_members (id, space_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, owner.ID, owner.SpaceID, owner.UserID, string(owner.Role), owner.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit space: %w", err)
	}

	return nil
}

// InsertIfAbsent inserts a space unless its id or slug already exists
func (r *SpaceRepository) InsertIfAbsent(ctx context.Context, space *domain.Space) (bool, error) {
	query := `
		INSERT INTO spaces (id, name, slug, description, logo, type, invite_code, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		space.ID,
		space.Name,
		space.Slug,
		space.Description,
		space.Logo,
		string(space.Type),
		space.InviteCode,
		space.OwnerID,
		space.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert space: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a space by ID
func (r *SpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces s WHERE s.id = $1`
	return r.getOne(ctx, query, id)
}

// GetBySlug retrieves a space by its exact slug
func (r *SpaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces s WHERE s.slug = $1`
	return r.getOne(ctx, query, slug)
}

func (r *SpaceRepository) getOne(ctx context.Context, query string, arg any) (*domain.Space, error) {
	space, err := scanSpace(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    type = COALESCE($4, type),
		    logo = COALESCE($5, logo)
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Description, spaceType, update.Logo)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}

	return nil
}

// SetInviteCode replaces the invite code of a space
func (r *SpaceRepository) SetInviteCode(ctx context.Context, id uuid.UUID, code string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE spaces SET invite_code = $2 WHERE id = $1`, id, code)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
	}
	return nil
}

// List retrieves a page of spaces matching the filter, newest first
func (r *SpaceRepository) List(ctx context.Context, filter domain.SpaceFilter) ([]domain.Space, error) {
	where, args := spaceWhere(filter)
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM spaces s
		%s
		ORDER BY s.created_at DESC, s.id
		LIMIT $%d OFFSET $%d
	`, spaceColumns, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
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
	where, args := spaceWhere(filter)

	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM spaces s `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count spaces: %w", err)
	}

	return count, nil
}

func spaceWhere(filter domain.SpaceFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, fmt.Sprintf("s.type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, strings.ToLower(filter.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(strpos(lower(s.name), $%d) > 0 OR strpos(lower(COALESCE(s.description, '')), $%d) > 0)", n, n,
		))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanSpace(row pgx.Row) (*domain.Space, error) {
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
