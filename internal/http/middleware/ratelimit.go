package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-idm-engine/internal/config"
	"github.com/tendant/simple-idm-engine/internal/httputil"
)

// RateLimitConfig holds rate limiting configuration for one endpoint group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates a per-client-IP rate limiter.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return httputil.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", httputil.ClientIP(r),
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// RateLimiters groups the limiters applied to each route family.
type RateLimiters struct {
	Auth    func(http.Handler) http.Handler // register, login
	Reset   func(http.Handler) http.Handler
	Verify  func(http.Handler) http.Handler
	Refresh func(http.Handler) http.Handler
	Profile func(http.Handler) http.Handler
}

// NewRateLimiters builds the limiters from configuration.
func NewRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) RateLimiters {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return RateLimiters{Auth: noOp, Reset: noOp, Verify: noOp, Refresh: noOp, Profile: noOp}
	}

	limit := func(requests, windowMinutes int) func(http.Handler) http.Handler {
		return RateLimit(RateLimitConfig{
			Requests: requests,
			Window:   time.Duration(windowMinutes) * time.Minute,
			Logger:   logger,
		})
	}
	return RateLimiters{
		Auth:    limit(cfg.AuthRequestsPerMinute, cfg.AuthWindowMinutes),
		Reset:   limit(cfg.ResetRequestsPerWindow, cfg.ResetWindowMinutes),
		Verify:  limit(cfg.VerifyRequestsPerWindow, cfg.VerifyWindowMinutes),
		Refresh: limit(cfg.RefreshRequestsPerMinute, cfg.RefreshWindowMinutes),
		Profile: limit(cfg.ProfileRequestsPerMinute, cfg.ProfileWindowMinutes),
	}
}
