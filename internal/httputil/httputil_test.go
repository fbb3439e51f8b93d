package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

func TestWriteError(t *testing.T) {
	until := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", domain.NewValidationError("password", "too short"), http.StatusBadRequest, "too short"},
		{"duplicate", &domain.DuplicateAccountError{Field: "email"}, http.StatusConflict, "account with this email already exists"},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
		{"blocked", &domain.AccountBlockedError{Until: until}, http.StatusLocked, domain.ErrAccountBlocked.Error()},
		{"inactive", domain.ErrAccountInactive, http.StatusForbidden, "account is inactive"},
		{"unverified", domain.ErrEmailNotVerified, http.StatusForbidden, "email not verified"},
		{"reset code", domain.ErrInvalidResetCode, http.StatusBadRequest, "invalid or expired reset code"},
		{"verification token", domain.ErrInvalidVerificationToken, http.StatusBadRequest, "invalid or expired verification token"},
		{"not found", domain.ErrAccountNotFound, http.StatusNotFound, "account not found"},
		{"internal", fmt.Errorf("update account: %w", errors.New("connection reset")), http.StatusInternalServerError, "internal server error"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", body["error"], tt.wantError)
			}
			if tt.wantStatus == http.StatusLocked && body["blocked_until"] != "2026-03-01T10:30:00Z" {
				t.Errorf("blocked_until = %q", body["blocked_until"])
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6 remote addr", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded wins", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.7"}, "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthContext(t *testing.T) {
	if _, ok := AuthFromContext(context.Background()); ok {
		t.Fatal("empty context should carry no caller")
	}

	want := AuthContext{AccountID: uuid.New(), Email: "a@example.com", Role: domain.RoleStaff}
	got, ok := AuthFromContext(WithAuth(context.Background(), want))
	if !ok || got != want {
		t.Errorf("AuthFromContext() = %+v, %v", got, ok)
	}
}

func TestAuthCookies(t *testing.T) {
	cfg := DefaultCookieConfig(true)
	pair := &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}

	rec := httptest.NewRecorder()
	SetAuthCookies(rec, pair, 7*24*time.Hour, cfg)

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	access, refresh := cookies["access_token"], cookies["refresh_token"]
	if access == nil || refresh == nil {
		t.Fatalf("cookies = %v", cookies)
	}
	if access.Value != "access" || access.MaxAge != 900 || access.Path != "/" || !access.HttpOnly || !access.Secure {
		t.Errorf("access cookie = %+v", access)
	}
	if refresh.Value != "refresh" || refresh.Path != "/v1/auth" || refresh.MaxAge != 7*24*3600 {
		t.Errorf("refresh cookie = %+v", refresh)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh"})
	if v, ok := GetRefreshTokenFromCookie(req); !ok || v != "refresh" {
		t.Errorf("GetRefreshTokenFromCookie() = %q, %v", v, ok)
	}
	if _, ok := GetAccessTokenFromCookie(req); ok {
		t.Error("no access cookie was sent")
	}

	rec = httptest.NewRecorder()
	ClearAuthCookies(rec, cfg)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not expired: MaxAge=%d", c.Name, c.MaxAge)
		}
	}
}
