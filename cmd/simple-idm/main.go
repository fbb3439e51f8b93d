package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tendant/simple-idm-engine/internal/config"
	httpserver "github.com/tendant/simple-idm-engine/internal/http"
	"github.com/tendant/simple-idm-engine/internal/metrics"
	"github.com/tendant/simple-idm-engine/internal/notification"
	"github.com/tendant/simple-idm-engine/pkg/audit"
	"github.com/tendant/simple-idm-engine/pkg/auth"
	"github.com/tendant/simple-idm-engine/pkg/lock"
	"github.com/tendant/simple-idm-engine/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 5*time.Second)
	err = repository.CheckSchema(schemaCtx, db)
	cancelSchema()
	if err != nil {
		logger.Error("database schema check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Per-account lock: Redis when configured so replicas share it
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.HasRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, lock.RedisConfig{})
		logger.Info("distributed account lock enabled", "addr", cfg.RedisAddr)
	}

	// Audit trail
	sinks := audit.MultiSink{audit.LogSink{Logger: logger}}
	if cfg.Audit.Persist {
		sinks = append(sinks, repository.NewAuditRepository(db))
	}
	dispatcher := audit.NewDispatcher(audit.Config{
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sinks, logger)

	hasher, err := auth.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		logger.Error("invalid password hasher configuration", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:          []byte(cfg.JWTSecret),
		RefreshSecret:   []byte(cfg.JWTRefreshSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Error("failed to create token issuer", "error", err)
		os.Exit(1)
	}

	deps := auth.Dependencies{
		Accounts:      repository.NewAccountsRepository(db),
		RefreshTokens: repository.NewRefreshTokensRepository(db),
		Audit:         dispatcher,
		Hasher:        hasher,
		Tokens:        tokens,
		Locker:        locker,
	}

	if cfg.HasSMTP() {
		emailService, err := notification.NewEmailService(notification.EmailConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			User:       cfg.SMTPUser,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			FromName:   cfg.SMTPFromName,
			TLS:        cfg.SMTPTLS,
			AppBaseURL: cfg.AppBaseURL,
			ResetTTL:   cfg.Lockout.ResetCodeTTL,
		})
		if err != nil {
			logger.Error("failed to create email service", "error", err)
			os.Exit(1)
		}
		deps.Mailer = emailService
		logger.Info("email service enabled")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m, err = metrics.New(metrics.Options{Registerer: prometheus.DefaultRegisterer})
		if err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		deps.Metrics = m
	}

	service, err := auth.NewService(auth.ServiceConfig{
		Lockout: auth.LockoutPolicy{
			MaxAttempts:     cfg.Lockout.MaxAttempts,
			LockoutDuration: cfg.Lockout.LockoutDuration,
			ResetTokenTTL:   cfg.Lockout.ResetCodeTTL,
		},
		PasswordPolicy: auth.NewPasswordPolicy(cfg.PasswordPolicy),
		EmailRules: auth.EmailRules{
			Strict:          cfg.Validation.StrictEmailValidation,
			BlockDisposable: cfg.Validation.BlockDisposableEmail,
		},
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
		Logger:               logger,
	}, deps)
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		os.Exit(1)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Service:         service,
		Metrics:         m,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
		CookieSecure:    cfg.CookieSecure,
		HealthCheck:     db.PingContext,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeRefreshTokens(ctx, logger, service, cfg.RefreshCleanupInterval)

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := service.Wait(shutdownCtx); err != nil {
		logger.Warn("pending emails not delivered before shutdown", "error", err)
	}
	dispatcher.Close()
	if n := dispatcher.Dropped(); n > 0 {
		logger.Warn("audit events dropped", "count", n)
	}

	logger.Info("server stopped")
}

// purgeRefreshTokens deletes expired refresh-token records every interval
// until ctx is cancelled.
func purgeRefreshTokens(ctx context.Context, logger *slog.Logger, service *auth.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := service.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				logger.Error("failed to purge refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired refresh tokens", "count", n)
			}
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
