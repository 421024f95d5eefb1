package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpaceType controls how users may join a space
type SpaceType string

const (
	SpaceTypePublic  SpaceType = "public"
	SpaceTypePrivate SpaceType = "private"
)

// Valid reports whether t is a known space type
func (t SpaceType) Valid() bool {
	return t == SpaceTypePublic || t == SpaceTypePrivate
}

// Role is a member's role inside a space
type Role string

// Role constants
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may change space settings and members
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Space represents a tenant space (e.g. one residential community)
type Space struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	Logo         *string   `json:"logo,omitempty"`
	Type         SpaceType `json:"type"`
	InviteCode   *string   `json:"-"`
	OwnerID      uuid.UUID `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	MembersCount int       `json:"members_count"`
}

// HasInviteCode reports whether the space carries a non-blank invite code
func (s *Space) HasInviteCode() bool {
	return !IsBlank(s.InviteCode)
}

// SpaceView is a space as seen by a particular viewer
type SpaceView struct {
	Space
	Role       *Role   `json:"role,omitempty"`
	InviteCode *string `json:"invite_code,omitempty"`
}

// NewSpaceView decorates space for a viewer holding role. A nil role means the
// viewer is not a member. Only owners and admins see the invite code.
func NewSpaceView(space Space, role *Role) *SpaceView {
	view := &SpaceView{Space: space, Role: role}
	if role != nil && role.CanManage() {
		view.InviteCode = space.InviteCode
	}
	return view
}

// SpaceCreate represents space creation data
type SpaceCreate struct {
	Name        string    `json:"name" validate:"required,max=120"`
	Slug        string    `json:"slug" validate:"omitempty,max=64"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Logo        *string   `json:"logo,omitempty" validate:"omitempty,max=1024"`
	Type        SpaceType `json:"type,omitempty" validate:"omitempty,oneof=public private"`
	InviteCode  *string   `json:"invite_code,omitempty" validate:"omitempty,max=64"`
}

// SpaceUpdate represents space update data. Nil fields are left untouched.
type SpaceUpdate struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        *SpaceType `json:"type,omitempty" validate:"omitempty,oneof=public private"`
	Logo        *string    `json:"logo,omitempty" validate:"omitempty,max=1024"`
}

// Empty reports whether the update changes nothing
func (u SpaceUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Type == nil && u.Logo == nil
}

// SpaceFilter narrows a space listing
type SpaceFilter struct {
	Type   *SpaceType
	Search string
	Limit  int
	Offset int
}

// SpaceQuery is a paged space listing request
type SpaceQuery struct {
	Type     *SpaceType
	Search   string
	Page     int
	PageSize int
}

// SpaceMember represents space membership
type SpaceMember struct {
	ID       uuid.UUID   `json:"id"`
	SpaceID  uuid.UUID   `json:"space_id"`
	UserID   uuid.UUID   `json:"user_id"`
	Role     Role        `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
	User     *UserPublic `json:"user,omitempty"`
}

// JoinRequest is the body of a join call
type JoinRequest struct {
	InviteCode *string `json:"invite_code,omitempty" validate:"omitempty,max=64"`
}

// RoleUpdate is the body of a member role change
type RoleUpdate struct {
	Role Role `json:"role" validate:"required,oneof=owner admin member"`
}

// InviteCodeUpdate is the body of an invite code change. A blank code asks for a generated one.
type InviteCodeUpdate struct {
	InviteCode string `json:"invite_code" validate:"max=64"`
}
