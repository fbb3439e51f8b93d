// Package idm embeds the authentication engine in another application.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create an IDM instance and mount its router
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	engine, err := idm.New(idm.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//	defer engine.Close()
//
//	http.ListenAndServe(":8080", engine.Router())
//
// Protecting your own routes:
//
//	r.With(engine.AuthMiddleware()).Get("/orders", func(w http.ResponseWriter, r *http.Request) {
//	    caller, _ := idm.GetAuth(r)
//	    ...
//	})
package idm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-idm-engine/internal/config"
	idmhttp "github.com/tendant/simple-idm-engine/internal/http"
	"github.com/tendant/simple-idm-engine/internal/http/middleware"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/internal/metrics"
	"github.com/tendant/simple-idm-engine/pkg/audit"
	"github.com/tendant/simple-idm-engine/pkg/auth"
	"github.com/tendant/simple-idm-engine/pkg/domain"
	"github.com/tendant/simple-idm-engine/pkg/lock"
	"github.com/tendant/simple-idm-engine/pkg/repository"
)

const minSecretLength = 32

// Config holds the configuration for the IDM library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key for signing JWT tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in JWT tokens (default: "simple-idm").
	JWTIssuer string

	// AccessTokenTTL is the lifetime of access tokens (default: 15 minutes).
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the lifetime of refresh tokens (default: 7 days).
	RefreshTokenTTL time.Duration

	// Lockout is the failed-login policy (default: 5 attempts, 30 minute lock).
	Lockout auth.LockoutPolicy

	// Mailer delivers verification, reset and lockout emails (optional).
	Mailer auth.Mailer

	// Locker serializes writes per account. Use lock.NewRedisLocker when
	// several replicas share the database (default: in-process lock).
	Locker lock.Locker

	// Registerer receives the Prometheus collectors (optional; no metrics when nil).
	Registerer prometheus.Registerer

	RequireVerifiedEmail bool
	CookieSecure         bool

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// IDM is the main identity management instance.
type IDM struct {
	config     Config
	db         *sql.DB
	service    *auth.Service
	dispatcher *audit.Dispatcher
	metrics    *metrics.Metrics
}

// New creates a new IDM instance with the given configuration.
// Returns an error if required database tables don't exist.
func New(cfg Config) (*IDM, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repository.CheckSchema(ctx, cfg.DB); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:          []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Registerer != nil {
		if m, err = metrics.New(metrics.Options{Registerer: cfg.Registerer}); err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}

	dispatcher := audit.NewDispatcher(audit.Config{BufferSize: 256}, audit.MultiSink{
		repository.NewAuditRepository(cfg.DB),
		audit.LogSink{Logger: cfg.Logger},
	}, cfg.Logger)

	deps := auth.Dependencies{
		Accounts:      repository.NewAccountsRepository(cfg.DB),
		RefreshTokens: repository.NewRefreshTokensRepository(cfg.DB),
		Audit:         dispatcher,
		Hasher:        auth.Argon2Hasher{},
		Mailer:        cfg.Mailer,
		Tokens:        tokens,
		Locker:        cfg.Locker,
	}
	if m != nil {
		deps.Metrics = m
	}

	service, err := auth.NewService(auth.ServiceConfig{
		Lockout:              cfg.Lockout,
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
		Logger:               cfg.Logger,
	}, deps)
	if err != nil {
		dispatcher.Close()
		return nil, err
	}

	return &IDM{
		config:     cfg,
		db:         cfg.DB,
		service:    service,
		dispatcher: dispatcher,
		metrics:    m,
	}, nil
}

// Router returns an http.Handler serving every route under /v1, plus
// /health and, when a Registerer is configured, /metrics.
func (i *IDM) Router() http.Handler {
	return idmhttp.NewRouter(idmhttp.RouterConfig{
		Logger:          i.config.Logger,
		Service:         i.service,
		Metrics:         i.metrics,
		RateLimitConfig: config.RateLimitConfig{Enabled: false},
		SecurityHeaders: config.SecurityHeadersConfig{Enabled: true, ContentTypeOptions: "nosniff", FrameOptions: "DENY"},
		Validation:      config.ValidationConfig{MaxRequestBodySize: 1 << 20},
		CookieSecure:    i.config.CookieSecure,
		HealthCheck:     i.db.PingContext,
	})
}

// Service returns the engine for direct use.
func (i *IDM) Service() *auth.Service {
	return i.service
}

// AuthMiddleware returns middleware that validates access tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(engine.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (i *IDM) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(i.service.Tokens())
}

// RequireRole returns middleware that admits only the given roles. It must
// run after AuthMiddleware.
func (i *IDM) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return middleware.RequireRole(roles...)
}

// Close waits up to 10 seconds for queued emails, then flushes pending
// audit events.
func (i *IDM) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := i.service.Wait(ctx); err != nil {
		i.config.Logger.Warn("pending emails not delivered before close", "error", err)
	}
	i.dispatcher.Close()
}

// GetAuth returns the authenticated caller. Use after AuthMiddleware.
func GetAuth(r *http.Request) (httputil.AuthContext, bool) {
	return httputil.AuthFromContext(r.Context())
}

// HealthHandler returns a health check handler that pings the database.
func (i *IDM) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := i.db.PingContext(r.Context()); err != nil {
			httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("idm: DB is required")
	}
	if cfg.JWTSecret == "" {
		return &domain.ConfigurationError{Setting: "JWTSecret", Message: "is required"}
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return &domain.ConfigurationError{Setting: "JWTSecret", Message: fmt.Sprintf("must be at least %d characters", minSecretLength)}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-idm"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewLocalLocker()
	}
}
