package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Service is the part of auth.Service used by this handler.
type Service interface {
	Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (*domain.AccessToken, error)
	Logout(ctx context.Context, refreshToken string, meta domain.RequestMeta) error
	LogoutAll(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) error
}

// Handler handles session endpoints.
type Handler struct {
	logger         *slog.Logger
	sessionService Service
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, sessionService Service, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:         logger,
		sessionService: sessionService,
		cookieConfig:   cookieConfig,
	}
}

// RefreshRequest represents a token refresh request (for mobile clients).
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken string    `json:"access_token,omitempty"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LogoutRequest represents a logout request (for mobile clients).
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token.
// POST /v1/auth/refresh
//
// For web clients: reads the refresh token from its cookie and replaces the access cookie.
// For mobile clients: reads and returns tokens in the body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	mobile := httputil.IsMobileClient(r)

	var refreshToken string
	if mobile {
		var req RefreshRequest
		if !httputil.ReadJSON(w, r, &req) {
			return
		}
		refreshToken = req.RefreshToken
	} else {
		var ok bool
		refreshToken, ok = httputil.GetRefreshTokenFromCookie(r)
		if !ok {
			httputil.Error(w, http.StatusUnauthorized, "refresh token not found")
			return
		}
	}

	if refreshToken == "" {
		httputil.Error(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	token, err := h.sessionService.Refresh(r.Context(), refreshToken, httputil.RequestMeta(r))
	if err != nil {
		if !mobile && errors.Is(err, domain.ErrInvalidToken) {
			httputil.ClearAuthCookies(w, h.cookieConfig)
		}
		httputil.WriteError(w, h.logger, err)
		return
	}

	resp := TokenResponse{
		TokenType: token.TokenType,
		ExpiresIn: token.ExpiresIn,
		ExpiresAt: token.ExpiresAt,
	}
	if mobile {
		resp.AccessToken = token.Token
	} else {
		httputil.SetAccessCookie(w, token, h.cookieConfig)
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Logout revokes a refresh token.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	mobile := httputil.IsMobileClient(r)

	var refreshToken string
	if mobile {
		var req LogoutRequest
		if !httputil.ReadJSON(w, r, &req) {
			return
		}
		refreshToken = req.RefreshToken
	} else {
		refreshToken, _ = httputil.GetRefreshTokenFromCookie(r)
	}

	if refreshToken != "" {
		// Unknown or malformed tokens still log out.
		if err := h.sessionService.Logout(r.Context(), refreshToken, httputil.RequestMeta(r)); err != nil && !errors.Is(err, domain.ErrInvalidToken) {
			h.logger.Error("logout failed", "error", err)
		}
	}

	if !mobile {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the caller.
// POST /v1/auth/logout/all
// Requires authentication.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ac, ok := httputil.AuthFromContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessionService.LogoutAll(r.Context(), ac.AccountID, httputil.RequestMeta(r)); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if !httputil.IsMobileClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}
	w.WriteHeader(http.StatusNoContent)
}
