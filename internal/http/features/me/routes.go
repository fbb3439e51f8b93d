package me

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-engine/internal/http/middleware"
)

// RegisterRoutes registers profile routes behind authMiddleware.
func (h *Handler) RegisterRoutes(r chi.Router, limiters middleware.RateLimiters, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(limiters.Profile, authMiddleware)
		r.Get("/v1/me", h.GetMe)
		r.Delete("/v1/me", h.DeleteMe)
	})
}
