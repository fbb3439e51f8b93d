// Package admin serves operator endpoints for managing other accounts.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Service is the part of auth.Service used by this handler.
type Service interface {
	UnblockAccount(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) (*domain.AccountView, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(logger *slog.Logger, service Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// UnblockAccount clears a lockout before it expires.
// POST /v1/admin/accounts/{id}/unblock
func (h *Handler) UnblockAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}

	view, err := h.service.UnblockAccount(r.Context(), id, httputil.RequestMeta(r))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if ac, ok := httputil.AuthFromContext(r.Context()); ok {
		h.logger.Info("account unblocked by operator", "account_id", id, "operator_id", ac.AccountID)
	}
	httputil.JSON(w, http.StatusOK, view)
}
