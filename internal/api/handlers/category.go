package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// CategoryHandler exposes the category visibility of the authenticated actor
type CategoryHandler struct{}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// Visible returns the categories the actor's role may see
func (h *CategoryHandler) Visible(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"role":       actor.Role,
		"categories": rbac.VisibleCategories(actor.Role),
	})
}
