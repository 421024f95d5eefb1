package domain

import (
	"context"

	"github.com/google/uuid"
)

// SpaceRepository persists spaces. Lookups return (nil, nil) when nothing matches.
type SpaceRepository interface {
	// Create inserts the space and its owner membership in one transaction.
	// A taken slug or id yields ErrDuplicate.
	Create(ctx context.Context, space *Space, owner *SpaceMember) error
	InsertIfAbsent(ctx context.Context, space *Space) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Space, error)
	GetBySlug(ctx context.Context, slug string) (*Space, error)
	Update(ctx context.Context, id uuid.UUID, update SpaceUpdate) error
	SetInviteCode(ctx context.Context, id uuid.UUID, code string) error
	List(ctx context.Context, filter SpaceFilter) ([]Space, error)
	Count(ctx context.Context, filter SpaceFilter) (int, error)
}

// MemberRepository persists space memberships. (space, user) is unique.
type MemberRepository interface {
	AddIfAbsent(ctx context.Context, member *SpaceMember) (bool, error)
	Get(ctx context.Context, spaceID, userID uuid.UUID) (*SpaceMember, error)
	UpdateRole(ctx context.Context, spaceID, userID uuid.UUID, role Role) (bool, error)
	Remove(ctx context.Context, spaceID, userID uuid.UUID) (bool, error)
	List(ctx context.Context, spaceID uuid.UUID, limit, offset int) ([]SpaceMember, error)
	Count(ctx context.Context, spaceID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SpaceMember, error)
}

// UserRepository persists the user fields this service owns
type UserRepository interface {
	// Create yields ErrDuplicate when the phone is taken.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// AssignDefaultSpace points the user at spaceID when the current pointer is
	// unset or references a space that does not exist.
	AssignDefaultSpace(ctx context.Context, userID, spaceID uuid.UUID) (bool, error)
}

// ListingRepository touches legacy listing rows
type ListingRepository interface {
	// ReattachToSpace moves listings of the given kind whose space reference is
	// unset or dangling to spaceID and returns how many rows changed.
	ReattachToSpace(ctx context.Context, kind ListingKind, spaceID uuid.UUID) (int64, error)
}
