package password

import (
	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-engine/internal/http/middleware"
)

// RegisterRoutes registers password authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router, limiters middleware.RateLimiters) {
	r.Group(func(r chi.Router) {
		r.Use(limiters.Auth)
		r.Post("/v1/auth/register", h.Register)
		r.Post("/v1/auth/login", h.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(limiters.Reset)
		r.Post("/v1/auth/password/reset-request", h.RequestPasswordReset)
		r.Post("/v1/auth/password/reset", h.ResetPassword)
	})
}
