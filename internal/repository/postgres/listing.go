package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/domain"
)

var listingTables = map[domain.ListingKind]string{
	domain.ListingProduct: "products",
	domain.ListingService: "services",
}

// ListingRepository handles the space reference of legacy listings
type ListingRepository struct {
	db *DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// ReattachToSpace moves unattached or orphaned listings to spaceID
func (r *ListingRepository) ReattachToSpace(ctx context.Context, kind domain.ListingKind, spaceID uuid.UUID) (int64, error) {
	table, ok := listingTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown listing kind %q", kind)
	}

	query := fmt.Sprintf(`
		UPDATE %s l
		SET space_id = $1
		WHERE l.space_id IS NULL
		   OR NOT EXISTS (SELECT 1 FROM spaces s WHERE s.id = l.space_id)
	`, table)

	tag, err := r.db.Pool.Exec(ctx, query, spaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to reattach %s: %w", table, err)
	}

	return tag.RowsAffected(), nil
}
