package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rrens/community-market/internal/api/middleware"
	"github.com/Rrens/community-market/internal/api/response"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/service"
)

// MemberHandler handles space membership endpoints
type MemberHandler struct {
	spaceService      *service.SpaceService
	membershipService *service.MembershipService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(spaceService *service.SpaceService, membershipService *service.MembershipService) *MemberHandler {
	return &MemberHandler{
		spaceService:      spaceService,
		membershipService: membershipService,
	}
}

// Join handles joining a space. The body is optional for public spaces.
func (h *MemberHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, spaceID, ok := actorAndSpace(w, r)
	if !ok {
		return
	}

	var input domain.JoinRequest
	if !decodeOptional(w, r, &input) {
		return
	}

	member, err := h.membershipService.Join(r.Context(), spaceID, userID, input.InviteCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, member)
}

// Leave removes the caller from a space
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, spaceID, ok := actorAndSpace(w, r)
	if !ok {
		return
	}

	if err := h.membershipService.Kick(r.Context(), userID, spaceID, userID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

// List returns a page of members. Only members may list members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, spaceID, ok := actorAndSpace(w, r)
	if !ok {
		return
	}

	page, pageSize, ok := pageParams(w, r)
	if !ok {
		return
	}

	if _, err := h.spaceService.Get(r.Context(), spaceID, nil); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.membershipService.Ensure(r.Context(), spaceID, userID); err != nil {
		writeError(w, r, err)
		return
	}

	members, err := h.membershipService.List(r.Context(), spaceID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, members)
}

// UpdateRole handles member role changes
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, spaceID, ok := actorAndSpace(w, r)
	if !ok {
		return
	}

	targetID, ok := targetUser(w, r)
	if !ok {
		return
	}

	var input domain.RoleUpdate
	if !decode(w, r, &input) {
		return
	}

	member, err := h.membershipService.ChangeRole(r.Context(), userID, spaceID, targetID, input.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, member)
}

// Remove handles removing a member from a space
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, spaceID, ok := actorAndSpace(w, r)
	if !ok {
		return
	}

	targetID, ok := targetUser(w, r)
	if !ok {
		return
	}

	if err := h.membershipService.Kick(r.Context(), userID, spaceID, targetID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

func actorAndSpace(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	spaceID, ok := middleware.GetSpaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing space ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, spaceID, true
}

func targetUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return uuid.Nil, false
	}
	return targetID, true
}
