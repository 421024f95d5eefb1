package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/domain"
)

// MembershipService decides who belongs to a space and with which role
type MembershipService struct {
	spaces  domain.SpaceRepository
	members domain.MemberRepository
}

// NewMembershipService creates a new membership service
func NewMembershipService(spaces domain.SpaceRepository, members domain.MemberRepository) *MembershipService {
	return &MembershipService{
		spaces:  spaces,
		members: members,
	}
}

// Join adds userID to the space as a member. Joining twice returns the
// existing membership. Private spaces require a matching invite code.
func (s *MembershipService) Join(ctx context.Context, spaceID, userID uuid.UUID, inviteCode *string) (*domain.SpaceMember, error) {
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, domain.Internal("get space", err)
	}
	if space == nil {
		return nil, domain.ErrSpaceNotFound
	}

	existing, err := s.members.Get(ctx, spaceID, userID)
	if err != nil {
		return nil, domain.Internal("get member", err)
	}
	if existing != nil {
		return existing, nil
	}

	if space.Type == domain.SpaceTypePrivate {
		if err := checkInviteCode(space.InviteCode, inviteCode); err != nil {
			return nil, err
		}
	}

	member := &domain.SpaceMember{
		ID:       uuid.New(),
		SpaceID:  spaceID,
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().UTC(),
	}

	// A concurrent join may win the insert; both callers then read the same row.
	if _, err := s.members.AddIfAbsent(ctx, member); err != nil && !errors.Is(err, domain.ErrDuplicate) {
		return nil, domain.Internal("add member", err)
	}

	return s.mustGet(ctx, spaceID, userID)
}

// checkInviteCode compares codes case-insensitively after trimming
func checkInviteCode(expected, supplied *string) error {
	if domain.IsBlank(expected) || domain.IsBlank(supplied) {
		return domain.ErrInviteRequired
	}
	if !strings.EqualFold(strings.TrimSpace(*expected), strings.TrimSpace(*supplied)) {
		return domain.ErrInviteInvalid
	}
	return nil
}

// UpdateRole sets the role of an existing membership. Callers are responsible
// for authorizing the actor.
func (s *MembershipService) UpdateRole(ctx context.Context, spaceID, userID uuid.UUID, role domain.Role) (*domain.SpaceMember, error) {
	if !role.Valid() {
		return nil, domain.InvalidInput("unknown role %q", role)
	}

	ok, err := s.members.UpdateRole(ctx, spaceID, userID, role)
	if err != nil {
		return nil, domain.Internal("update member role", err)
	}
	if !ok {
		return nil, domain.ErrMemberNotFound
	}

	return s.mustGet(ctx, spaceID, userID)
}

// Remove deletes a membership and reports whether one existed
func (s *MembershipService) Remove(ctx context.Context, spaceID, userID uuid.UUID) (bool, error) {
	removed, err := s.members.Remove(ctx, spaceID, userID)
	if err != nil {
		return false, domain.Internal("remove member", err)
	}
	return removed, nil
}

// Get returns the membership of userID in spaceID, or nil
func (s *MembershipService) Get(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	member, err := s.members.Get(ctx, spaceID, userID)
	if err != nil {
		return nil, domain.Internal("get member", err)
	}
	return member, nil
}

// List returns a page of members with their public user info
func (s *MembershipService) List(ctx context.Context, spaceID uuid.UUID, page, pageSize int) (*domain.Page[domain.SpaceMember], error) {
	page, pageSize = domain.NormalizePage(page, pageSize)

	total, err := s.members.Count(ctx, spaceID)
	if err != nil {
		return nil, domain.Internal("count members", err)
	}

	members, err := s.members.List(ctx, spaceID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, domain.Internal("list members", err)
	}
	if members == nil {
		members = []domain.SpaceMember{}
	}

	return &domain.Page[domain.SpaceMember]{
		Items:    members,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Ensure returns the role of userID in spaceID or fails with ACCESS_DENIED
func (s *MembershipService) Ensure(ctx context.Context, spaceID, userID uuid.UUID) (domain.Role, error) {
	member, err := s.Authorize(ctx, spaceID, userID)
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// Authorize returns the actor's membership. It fails with ACCESS_DENIED when the
// actor is not a member and FORBIDDEN when roles is non-empty and does not
// contain the actor's role.
func (s *MembershipService) Authorize(ctx context.Context, spaceID, actorID uuid.UUID, roles ...domain.Role) (*domain.SpaceMember, error) {
	member, err := s.Get(ctx, spaceID, actorID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrAccessDenied
	}
	if len(roles) > 0 && !slices.Contains(roles, member.Role) {
		return nil, domain.ErrForbidden
	}
	return member, nil
}

// ChangeRole lets an owner or admin change another member's role. Only owners
// may grant the owner role or change an owner's role.
func (s *MembershipService) ChangeRole(ctx context.Context, actorID, spaceID, targetID uuid.UUID, role domain.Role) (*domain.SpaceMember, error) {
	if err := s.requireSpace(ctx, spaceID); err != nil {
		return nil, err
	}

	actor, err := s.Authorize(ctx, spaceID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	target, err := s.Get(ctx, spaceID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrMemberNotFound
	}

	if actor.Role != domain.RoleOwner && (role == domain.RoleOwner || target.Role == domain.RoleOwner) {
		return nil, domain.ErrForbidden
	}

	return s.UpdateRole(ctx, spaceID, targetID, role)
}

// Kick removes targetID from the space. Any member may remove themselves;
// removing someone else takes an owner or admin, and admins cannot remove owners.
func (s *MembershipService) Kick(ctx context.Context, actorID, spaceID, targetID uuid.UUID) error {
	if err := s.requireSpace(ctx, spaceID); err != nil {
		return err
	}

	if actorID != targetID {
		actor, err := s.Authorize(ctx, spaceID, actorID, domain.RoleOwner, domain.RoleAdmin)
		if err != nil {
			return err
		}

		target, err := s.Get(ctx, spaceID, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return domain.ErrMemberNotFound
		}
		if target.Role == domain.RoleOwner && actor.Role != domain.RoleOwner {
			return domain.ErrForbidden
		}
	}

	removed, err := s.Remove(ctx, spaceID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrMemberNotFound
	}

	return nil
}

func (s *MembershipService) requireSpace(ctx context.Context, spaceID uuid.UUID) error {
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return domain.Internal("get space", err)
	}
	if space == nil {
		return domain.ErrSpaceNotFound
	}
	return nil
}

func (s *MembershipService) mustGet(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMember, error) {
	member, err := s.Get(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}
	return member, nil
}
