package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-engine/internal/http/middleware"
)

// RegisterRoutes registers session routes. authMiddleware guards logout/all.
func (h *Handler) RegisterRoutes(r chi.Router, limiters middleware.RateLimiters, authMiddleware func(http.Handler) http.Handler) {
	r.With(limiters.Refresh).Post("/v1/auth/refresh", h.Refresh)
	r.Post("/v1/auth/logout", h.Logout)
	r.With(authMiddleware).Post("/v1/auth/logout/all", h.LogoutAll)
}
