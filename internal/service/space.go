package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/domain"
)

const maxSlugLength = 64

// SlugCache resolves space slugs without hitting the store. A miss returns uuid.Nil.
type SlugCache interface {
	Get(ctx context.Context, slug string) (uuid.UUID, error)
	Set(ctx context.Context, slug string, id uuid.UUID) error
}

// SpaceService handles space operations
type SpaceService struct {
	spaces     domain.SpaceRepository
	members    domain.MemberRepository
	membership *MembershipService
	cache      SlugCache
}

// NewSpaceService creates a new space service. cache may be nil.
func NewSpaceService(
	spaces domain.SpaceRepository,
	members domain.MemberRepository,
	membership *MembershipService,
	cache SlugCache,
) *SpaceService {
	return &SpaceService{
		spaces:     spaces,
		members:    members,
		membership: membership,
		cache:      cache,
	}
}

// Create creates a space owned by ownerID together with the owner membership
func (s *SpaceService) Create(ctx context.Context, ownerID uuid.UUID, input domain.SpaceCreate) (*domain.Space, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.InvalidInput("name is required")
	}

	spaceSlug, err := normalizeSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}

	spaceType := input.Type
	if spaceType == "" {
		spaceType = domain.SpaceTypePublic
	}
	if !spaceType.Valid() {
		return nil, domain.InvalidInput("unknown space type %q", spaceType)
	}

	var inviteCode *string
	if spaceType == domain.SpaceTypePrivate {
		if domain.IsBlank(input.InviteCode) {
			return nil, domain.ErrInviteRequired
		}
		code := strings.TrimSpace(*input.InviteCode)
		inviteCode = &code
	}

	now := time.Now().UTC()
	space := &domain.Space{
		ID:          uuid.New(),
		Name:        name,
		Slug:        spaceSlug,
		Description: input.Description,
		Logo:        input.Logo,
		Type:        spaceType,
		InviteCode:  inviteCode,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	owner := &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  space.ID,
		UserID:   ownerID,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}

	if err := s.spaces.Create(ctx, space, owner); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrSlugConflict
		}
		return nil, domain.Internal("create space", err)
	}

	space.MembersCount = 1
	log.Info().
		Str("space_id", space.ID.String()).
		Str("slug", space.Slug).
		Str("owner_id", ownerID.String()).
		Msg("Space created")

	return space, nil
}

// normalizeSlug validates an explicit slug or derives one from the name
func normalizeSlug(raw, name string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = slug.Make(name)
		if len(raw) > maxSlugLength {
			raw = strings.Trim(raw[:maxSlugLength], "-")
		}
		if raw == "" {
			return "", domain.InvalidInput("cannot derive a slug from name %q", name)
		}
		return raw, nil
	}

	if len(raw) > maxSlugLength || !slug.IsSlug(raw) {
		return "", domain.InvalidInput("slug must be lowercase letters, digits and dashes")
	}
	return raw, nil
}

// Update changes the provided fields of a space. The actor must be an owner or admin.
func (s *SpaceService) Update(ctx context.Context, spaceID, actorID uuid.UUID, input domain.SpaceUpdate) (*domain.SpaceView, error) {
	space, err := s.find(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	actor, err := s.membership.Authorize(ctx, spaceID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.InvalidInput("name cannot be blank")
		}
		input.Name = &name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, domain.InvalidInput("unknown space type %q", *input.Type)
		}
		if *input.Type == domain.SpaceTypePrivate && !space.HasInviteCode() {
			return nil, domain.ErrInviteRequired
		}
	}

	if input.Empty() {
		return domain.NewSpaceView(*space, &actor.Role), nil
	}

	if err := s.spaces.Update(ctx, spaceID, input); err != nil {
		return nil, domain.Internal("update space", err)
	}

	updated, err := s.find(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	return domain.NewSpaceView(*updated, &actor.Role), nil
}

// Get returns a space decorated with the viewer's role. viewerID may be nil.
func (s *SpaceService) Get(ctx context.Context, spaceID uuid.UUID, viewerID *uuid.UUID) (*domain.SpaceView, error) {
	space, err := s.find(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, space, viewerID)
}

// GetBySlug returns a space by slug decorated with the viewer's role
func (s *SpaceService) GetBySlug(ctx context.Context, spaceSlug string, viewerID *uuid.UUID) (*domain.SpaceView, error) {
	space, err := s.findBySlug(ctx, spaceSlug)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, space, viewerID)
}

func (s *SpaceService) findBySlug(ctx context.Context, spaceSlug string) (*domain.Space, error) {
	if s.cache != nil {
		id, err := s.cache.Get(ctx, spaceSlug)
		if err != nil {
			log.Warn().Err(err).Str("slug", spaceSlug).Msg("Slug cache read failed")
		} else if id != uuid.Nil {
			space, err := s.spaces.GetByID(ctx, id)
			if err != nil {
				return nil, domain.Internal("get space", err)
			}
			if space != nil && space.Slug == spaceSlug {
				return space, nil
			}
		}
	}

	space, err := s.spaces.GetBySlug(ctx, spaceSlug)
	if err != nil {
		return nil, domain.Internal("get space by slug", err)
	}
	if space == nil {
		return nil, domain.ErrSpaceNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, space.Slug, space.ID); err != nil {
			log.Warn().Err(err).Str("slug", spaceSlug).Msg("Slug cache write failed")
		}
	}

	return space, nil
}

// List returns a page of spaces matching the query, each decorated with the
// viewer's role when viewerID is set.
func (s *SpaceService) List(ctx context.Context, query domain.SpaceQuery, viewerID *uuid.UUID) (*domain.Page[domain.SpaceView], error) {
	if query.Type != nil && !query.Type.Valid() {
		return nil, domain.InvalidInput("unknown space type %q", *query.Type)
	}

	page, pageSize := domain.NormalizePage(query.Page, query.PageSize)
	filter := domain.SpaceFilter{
		Type:   query.Type,
		Search: strings.TrimSpace(query.Search),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	total, err := s.spaces.Count(ctx, filter)
	if err != nil {
		return nil, domain.Internal("count spaces", err)
	}

	spaces, err := s.spaces.List(ctx, filter)
	if err != nil {
		return nil, domain.Internal("list spaces", err)
	}

	roles, err := s.rolesOf(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SpaceView, 0, len(spaces))
	for _, space := range spaces {
		items = append(items, *domain.NewSpaceView(space, roles[space.ID]))
	}

	return &domain.Page[domain.SpaceView]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ListMine returns every space userID belongs to
func (s *SpaceService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.SpaceView, error) {
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("list memberships", err)
	}

	views := make([]domain.SpaceView, 0, len(memberships))
	for _, m := range memberships {
		space, err := s.spaces.GetByID(ctx, m.SpaceID)
		if err != nil {
			return nil, domain.Internal("get space", err)
		}
		if space == nil {
			continue
		}
		role := m.Role
		views = append(views, *domain.NewSpaceView(*space, &role))
	}

	return views, nil
}

// SetInviteCode replaces the invite code of a space. A blank code generates one.
func (s *SpaceService) SetInviteCode(ctx context.Context, spaceID, actorID uuid.UUID, code string) (*domain.SpaceView, error) {
	if _, err := s.find(ctx, spaceID); err != nil {
		return nil, err
	}

	actor, err := s.membership.Authorize(ctx, spaceID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		code = GenerateInviteCode()
	}

	if err := s.spaces.SetInviteCode(ctx, spaceID, code); err != nil {
		return nil, domain.Internal("set invite code", err)
	}

	space, err := s.find(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	return domain.NewSpaceView(*space, &actor.Role), nil
}

// GenerateInviteCode returns a random 8 character upper-case code
func GenerateInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *SpaceService) find(ctx context.Context, spaceID uuid.UUID) (*domain.Space, error) {
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, domain.Internal("get space", err)
	}
	if space == nil {
		return nil, domain.ErrSpaceNotFound
	}
	return space, nil
}

func (s *SpaceService) view(ctx context.Context, space *domain.Space, viewerID *uuid.UUID) (*domain.SpaceView, error) {
	if viewerID == nil {
		return domain.NewSpaceView(*space, nil), nil
	}

	member, err := s.membership.Get(ctx, space.ID, *viewerID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return domain.NewSpaceView(*space, nil), nil
	}

	role := member.Role
	return domain.NewSpaceView(*space, &role), nil
}

func (s *SpaceService) rolesOf(ctx context.Context, viewerID *uuid.UUID) (map[uuid.UUID]*domain.Role, error) {
	roles := make(map[uuid.UUID]*domain.Role)
	if viewerID == nil {
		return roles, nil
	}

	memberships, err := s.members.ListByUser(ctx, *viewerID)
	if err != nil {
		return nil, domain.Internal("list memberships", err)
	}
	for _, m := range memberships {
		role := m.Role
		roles[m.SpaceID] = &role
	}
	return roles, nil
}
