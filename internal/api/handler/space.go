package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Rrens/community-market/internal/api/middleware"
	"github.com/Rrens/community-market/internal/api/response"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/service"
)

// SpaceHandler handles space endpoints
type SpaceHandler struct {
	spaceService *service.SpaceService
}

// NewSpaceHandler creates a new space handler
func NewSpaceHandler(spaceService *service.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService}
}

// List handles the public space listing
func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, pageSize, ok := pageParams(w, r)
	if !ok {
		return
	}

	query := domain.SpaceQuery{
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if t := q.Get("type"); t != "" {
		spaceType := domain.SpaceType(t)
		query.Type = &spaceType
	}

	result, err := h.spaceService.List(r.Context(), query, middleware.GetViewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Create handles space creation
func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.SpaceCreate
	if !decode(w, r, &input) {
		return
	}

	space, err := h.spaceService.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	role := domain.RoleOwner
	response.Created(w, domain.NewSpaceView(*space, &role))
}

// Mine lists the spaces of the caller
func (h *SpaceHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	spaces, err := h.spaceService.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, spaces)
}

// GetBySlug handles getting a space by slug
func (h *SpaceHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.spaceService.GetBySlug(r.Context(), chi.URLParam(r, "slug"), middleware.GetViewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// Get handles getting a space by ID
func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := middleware.GetSpaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing space ID")
		return
	}

	view, err := h.spaceService.Get(r.Context(), spaceID, middleware.GetViewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// Update handles space updates
func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	spaceID, ok := middleware.GetSpaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing space ID")
		return
	}

	var input domain.SpaceUpdate
	if !decode(w, r, &input) {
		return
	}

	view, err := h.spaceService.Update(r.Context(), spaceID, userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// SetInviteCode handles invite code changes
func (h *SpaceHandler) SetInviteCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	spaceID, ok := middleware.GetSpaceID(r.Context())
	if !ok {
		response.BadRequest(w, "missing space ID")
		return
	}

	var input domain.InviteCodeUpdate
	if !decode(w, r, &input) {
		return
	}

	view, err := h.spaceService.SetInviteCode(r.Context(), spaceID, userID, input.InviteCode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// pageParams parses the page and page_size query parameters
func pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	q := r.URL.Query()

	parse := func(name string) (int, bool) {
		raw := q.Get(name)
		if raw == "" {
			return 0, true
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(w, "invalid "+name)
			return 0, false
		}
		return n, true
	}

	page, ok := parse("page")
	if !ok {
		return 0, 0, false
	}
	pageSize, ok := parse("page_size")
	if !ok {
		return 0, 0, false
	}

	return page, pageSize, true
}
