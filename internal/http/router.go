package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-idm-engine/internal/config"
	"github.com/tendant/simple-idm-engine/internal/http/features/admin"
	"github.com/tendant/simple-idm-engine/internal/http/features/email"
	"github.com/tendant/simple-idm-engine/internal/http/features/me"
	"github.com/tendant/simple-idm-engine/internal/http/features/password"
	"github.com/tendant/simple-idm-engine/internal/http/features/session"
	"github.com/tendant/simple-idm-engine/internal/http/middleware"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/internal/metrics"
	"github.com/tendant/simple-idm-engine/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Service         *auth.Service
	Metrics         *metrics.Metrics // nil disables request metrics and /metrics
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	CookieSecure    bool // Secure flag on auth cookies; true behind HTTPS
	// HealthCheck reports backing store health on /health. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(cfg.Metrics.Middleware)
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	limiters := middleware.NewRateLimiters(cfg.RateLimitConfig, logger)
	cookies := httputil.DefaultCookieConfig(cfg.CookieSecure)
	authMiddleware := middleware.Auth(cfg.Service.Tokens())

	password.NewHandler(logger, cfg.Service, cookies, cfg.Service.Tokens().RefreshTokenTTL()).
		RegisterRoutes(r, limiters)
	session.NewHandler(logger, cfg.Service, cookies).
		RegisterRoutes(r, limiters, authMiddleware)
	email.NewHandler(logger, cfg.Service).
		RegisterRoutes(r, limiters)
	me.NewHandler(logger, cfg.Service, cookies).
		RegisterRoutes(r, limiters, authMiddleware)
	admin.NewHandler(logger, cfg.Service).
		RegisterRoutes(r, authMiddleware)

	return r
}
