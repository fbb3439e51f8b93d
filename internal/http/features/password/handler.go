package password

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/auth"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

const resetRequestMessage = "If an account exists for that email, a reset code has been sent."

// Service is the part of auth.Service used by this handler.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput, meta domain.RequestMeta) (*auth.RegisterResult, error)
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*auth.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string, meta domain.RequestMeta) error
	ResetPassword(ctx context.Context, in auth.ResetPasswordInput, meta domain.RequestMeta) error
}

// Handler handles registration, password login and password reset.
type Handler struct {
	logger       *slog.Logger
	service      Service
	cookieConfig httputil.CookieConfig
	refreshTTL   time.Duration
}

// NewHandler creates a new password handler.
func NewHandler(logger *slog.Logger, service Service, cookieConfig httputil.CookieConfig, refreshTTL time.Duration) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		cookieConfig: cookieConfig,
		refreshTTL:   refreshTTL,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by Login. Tokens are only present for mobile
// clients; web clients receive them as cookies.
type LoginResponse struct {
	AccessToken  string             `json:"access_token,omitempty"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int                `json:"expires_in"`
	ExpiresAt    time.Time          `json:"expires_at"`
	Account      domain.AccountView `json:"account"`
}

// ResetRequestRequest starts a password reset.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// MessageResponse carries a human-readable result.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register creates an account pending email verification.
// POST /v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}, httputil.RequestMeta(r))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, result)
}

// Login authenticates with email and password.
// POST /v1/auth/login
//
// For web clients: sets HttpOnly cookies.
// For mobile clients (X-Client-Type: mobile): returns tokens in the body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, httputil.RequestMeta(r))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	resp := LoginResponse{
		TokenType: result.Tokens.TokenType,
		ExpiresIn: result.Tokens.ExpiresIn,
		ExpiresAt: result.Tokens.ExpiresAt,
		Account:   result.Account,
	}
	if httputil.IsMobileClient(r) {
		resp.AccessToken = result.Tokens.AccessToken
		resp.RefreshToken = result.Tokens.RefreshToken
	} else {
		httputil.SetAuthCookies(w, result.Tokens, h.refreshTTL, h.cookieConfig)
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// RequestPasswordReset sends a reset code. The response is identical
// whether or not the account exists.
// POST /v1/auth/password/reset-request
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestRequest
	if !httputil.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email, httputil.RequestMeta(r)); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, MessageResponse{Message: resetRequestMessage})
}

// ResetPassword sets a new password using an emailed code.
// POST /v1/auth/password/reset
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "email, code and new_password are required")
		return
	}

	err := h.service.ResetPassword(r.Context(), auth.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	}, httputil.RequestMeta(r))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset."})
}
