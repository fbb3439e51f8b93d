package email

import (
	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-engine/internal/http/middleware"
)

// RegisterRoutes registers email verification routes.
func (h *Handler) RegisterRoutes(r chi.Router, limiters middleware.RateLimiters) {
	r.Group(func(r chi.Router) {
		r.Use(limiters.Verify)
		r.Post("/v1/auth/verify-email", h.VerifyEmail)
		r.Post("/v1/auth/resend-verification", h.ResendVerification)
	})
}
