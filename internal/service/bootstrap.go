package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/config"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/security"
)

// BootstrapResult reports what one bootstrap run changed
type BootstrapResult struct {
	OwnerID            uuid.UUID                    `json:"owner_id"`
	SpaceID            uuid.UUID                    `json:"space_id"`
	OwnerCreated       bool                         `json:"owner_created"`
	SpaceCreated       bool                         `json:"space_created"`
	MembershipsAdded   int                          `json:"memberships_added"`
	DefaultsAssigned   int                          `json:"defaults_assigned"`
	ListingsReattached map[domain.ListingKind]int64 `json:"listings_reattached"`
}

// Changes returns the number of rows the run created or modified
func (r *BootstrapResult) Changes() int {
	n := r.MembershipsAdded + r.DefaultsAssigned
	if r.OwnerCreated {
		n++
	}
	if r.SpaceCreated {
		n++
	}
	for _, c := range r.ListingsReattached {
		n += int(c)
	}
	return n
}

// Bootstrapper seeds the reserved owner and default space and moves
// pre-existing users and listings into it. Every step is safe to repeat.
type Bootstrapper struct {
	cfg      config.BootstrapConfig
	spaces   domain.SpaceRepository
	members  domain.MemberRepository
	users    domain.UserRepository
	listings domain.ListingRepository
}

// NewBootstrapper creates a new bootstrapper
func NewBootstrapper(
	cfg config.BootstrapConfig,
	spaces domain.SpaceRepository,
	members domain.MemberRepository,
	users domain.UserRepository,
	listings domain.ListingRepository,
) *Bootstrapper {
	return &Bootstrapper{
		cfg:      cfg,
		spaces:   spaces,
		members:  members,
		users:    users,
		listings: listings,
	}
}

// Run executes every bootstrap step in order
func (b *Bootstrapper) Run(ctx context.Context) (*BootstrapResult, error) {
	result := &BootstrapResult{ListingsReattached: make(map[domain.ListingKind]int64)}

	owner, created, err := b.ensureOwner(ctx)
	if err != nil {
		return nil, err
	}
	result.OwnerID = owner.ID
	result.OwnerCreated = created

	space, created, err := b.ensureSpace(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	result.SpaceID = space.ID
	result.SpaceCreated = created

	added, err := b.ensureMember(ctx, space.ID, owner.ID, domain.RoleOwner)
	if err != nil {
		return nil, err
	}
	if added {
		result.MembershipsAdded++
	}

	userIDs, err := b.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for _, userID := range userIDs {
		assigned, err := b.users.AssignDefaultSpace(ctx, userID, space.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to assign default space to %s: %w", userID, err)
		}
		if assigned {
			result.DefaultsAssigned++
		}

		role := domain.RoleMember
		if userID == owner.ID {
			role = domain.RoleOwner
		}
		added, err := b.ensureMember(ctx, space.ID, userID, role)
		if err != nil {
			return nil, err
		}
		if added {
			result.MembershipsAdded++
		}
	}

	for _, kind := range domain.ListingKinds {
		n, err := b.listings.ReattachToSpace(ctx, kind, space.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reattach %s listings: %w", kind, err)
		}
		result.ListingsReattached[kind] = n
	}

	log.Info().
		Str("space_id", space.ID.String()).
		Str("owner_id", owner.ID.String()).
		Int("users", len(userIDs)).
		Int("changes", result.Changes()).
		Msg("Bootstrap completed")

	return result, nil
}

func (b *Bootstrapper) ensureOwner(ctx context.Context) (*domain.User, bool, error) {
	owner, err := b.users.GetByPhone(ctx, b.cfg.OwnerPhone)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get bootstrap owner: %w", err)
	}
	if owner != nil {
		return owner, false, nil
	}

	password := b.cfg.OwnerPassword
	if password == "" {
		log.Warn().Msg("Bootstrap owner password not set, generating an unusable one")
		password = uuid.NewString()
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	owner = &domain.User{
		ID:           uuid.New(),
		Phone:        b.cfg.OwnerPhone,
		Name:         b.cfg.OwnerName,
		PasswordHash: hash,
		Role:         domain.UserRoleAdmin,
		IsVerified:   true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := b.users.Create(ctx, owner); err != nil {
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, false, fmt.Errorf("failed to create bootstrap owner: %w", err)
		}

		// created concurrently
		existing, err := b.users.GetByPhone(ctx, b.cfg.OwnerPhone)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload bootstrap owner: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("bootstrap owner %s vanished after conflict", b.cfg.OwnerPhone)
		}
		return existing, false, nil
	}

	log.Info().Str("user_id", owner.ID.String()).Msg("Bootstrap owner created")
	return owner, true, nil
}

func (b *Bootstrapper) ensureSpace(ctx context.Context, ownerID uuid.UUID) (*domain.Space, bool, error) {
	space, err := b.spaces.GetBySlug(ctx, b.cfg.SpaceSlug)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get default space: %w", err)
	}
	if space != nil {
		return space, false, nil
	}

	id, err := uuid.Parse(b.cfg.SpaceID)
	if err != nil {
		return nil, false, fmt.Errorf("invalid bootstrap space id %q: %w", b.cfg.SpaceID, err)
	}

	var description *string
	if b.cfg.SpaceDescription != "" {
		desc := b.cfg.SpaceDescription
		description = &desc
	}

	inserted, err := b.spaces.InsertIfAbsent(ctx, &domain.Space{
		ID:          id,
		Name:        b.cfg.SpaceName,
		Slug:        b.cfg.SpaceSlug,
		Description: description,
		Type:        domain.SpaceTypePublic,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert default space: %w", err)
	}

	space, err = b.spaces.GetBySlug(ctx, b.cfg.SpaceSlug)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload default space: %w", err)
	}
	if space == nil {
		return nil, false, fmt.Errorf("default space id %s is held by another slug", id)
	}

	if inserted {
		log.Info().Str("space_id", space.ID.String()).Str("slug", space.Slug).Msg("Default space created")
	}
	return space, inserted, nil
}

func (b *Bootstrapper) ensureMember(ctx context.Context, spaceID, userID uuid.UUID, role domain.Role) (bool, error) {
	added, err := b.members.AddIfAbsent(ctx, &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  spaceID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add %s to default space: %w", userID, err)
	}
	return added, nil
}
