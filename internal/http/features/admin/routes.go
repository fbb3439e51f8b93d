package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-engine/internal/http/middleware"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// RegisterRoutes registers admin routes. Callers must hold the manager role.
func (h *Handler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, middleware.RequireRole(domain.RoleManager))
		r.Post("/v1/admin/accounts/{id}/unblock", h.UnblockAccount)
	})
}
