package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Service is the part of auth.Service used by this handler.
type Service interface {
	Account(ctx context.Context, accountID uuid.UUID) (*domain.AccountView, error)
	DeleteAccount(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) error
}

// Handler handles endpoints about the calling account.
type Handler struct {
	logger       *slog.Logger
	service      Service
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, service Service, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		cookieConfig: cookieConfig,
	}
}

// GetMe returns the caller's account.
// GET /v1/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ac, ok := httputil.AuthFromContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.service.Account(r.Context(), ac.AccountID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// DeleteMe deletes the caller's account and revokes its tokens.
// DELETE /v1/me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ac, ok := httputil.AuthFromContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), ac.AccountID, httputil.RequestMeta(r)); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if !httputil.IsMobileClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}
	w.WriteHeader(http.StatusNoContent)
}
