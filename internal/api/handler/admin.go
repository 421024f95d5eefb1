package handler

import (
	"net/http"

	"github.com/Rrens/community-market/internal/api/response"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/service"
)

// AdminHandler handles platform administration endpoints
type AdminHandler struct {
	bootstrapper *service.Bootstrapper
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(bootstrapper *service.Bootstrapper) *AdminHandler {
	return &AdminHandler{bootstrapper: bootstrapper}
}

// Bootstrap runs the default space seeding and backfill on demand
func (h *AdminHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	result, err := h.bootstrapper.Run(r.Context())
	if err != nil {
		writeError(w, r, domain.Internal("bootstrap", err))
		return
	}

	response.OK(w, map[string]any{
		"result":  result,
		"changes": result.Changes(),
	})
}
