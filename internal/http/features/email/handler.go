package email

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

const resendMessage = "If the account is awaiting verification, a new email has been sent."

// Service is the part of auth.Service used by this handler.
type Service interface {
	VerifyEmail(ctx context.Context, token string, meta domain.RequestMeta) (*domain.AccountView, error)
	ResendVerification(ctx context.Context, email string, meta domain.RequestMeta) error
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(logger *slog.Logger, service Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyEmailResponse struct {
	Message string             `json:"message"`
	Account domain.AccountView `json:"account"`
}

// VerifyEmail handles email verification.
// POST /v1/auth/verify-email
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	// Support both query parameter and JSON body
	token := r.URL.Query().Get("token")
	if token == "" {
		var req VerifyEmailRequest
		if !httputil.ReadJSON(w, r, &req) {
			return
		}
		token = req.Token
	}

	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	view, err := h.service.VerifyEmail(r.Context(), token, httputil.RequestMeta(r))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, VerifyEmailResponse{
		Message: "Email verified successfully",
		Account: *view,
	})
}

// ResendVerification issues a fresh verification token. The response does
// not reveal whether the email is registered.
// POST /v1/auth/resend-verification
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if !httputil.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email, httputil.RequestMeta(r)); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, MessageResponse{Message: resendMessage})
}
