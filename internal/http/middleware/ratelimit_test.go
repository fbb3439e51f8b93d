package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tendant/simple-idm-engine/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Requests: 2,
		Window:   time.Minute,
		Logger:   discardLogger(),
	})(okHandler())

	send := func(remoteAddr, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = remoteAddr
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 1; i <= 2; i++ {
		if code := send("192.168.1.1:12345", ""); code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i, code)
		}
	}
	if code := send("192.168.1.1:54321", ""); code != http.StatusTooManyRequests {
		t.Errorf("third request from same IP: got status %d, want 429", code)
	}
	if code := send("192.168.1.2:12345", ""); code != http.StatusOK {
		t.Errorf("other IP: got status %d, want 200", code)
	}

	// Clients behind a proxy are keyed by their forwarded address.
	for i := 1; i <= 2; i++ {
		if code := send("10.0.0.1:1", "203.0.113.9"); code != http.StatusOK {
			t.Fatalf("forwarded request %d: got status %d, want 200", i, code)
		}
	}
	if code := send("10.0.0.1:1", "203.0.113.10"); code != http.StatusOK {
		t.Errorf("different forwarded client: got status %d, want 200", code)
	}
}

func TestNewRateLimiters_Disabled(t *testing.T) {
	limiters := NewRateLimiters(config.RateLimitConfig{Enabled: false}, discardLogger())
	handler := limiters.Auth(okHandler())

	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i, w.Code)
		}
	}
}

func TestNewRateLimiters_Enabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:                  true,
		AuthRequestsPerMinute:    1,
		AuthWindowMinutes:        1,
		ResetRequestsPerWindow:   5,
		ResetWindowMinutes:       15,
		VerifyRequestsPerWindow:  5,
		VerifyWindowMinutes:      15,
		RefreshRequestsPerMinute: 30,
		RefreshWindowMinutes:     1,
		ProfileRequestsPerMinute: 60,
		ProfileWindowMinutes:     1,
	}
	limiters := NewRateLimiters(cfg, discardLogger())

	for name, l := range map[string]func(http.Handler) http.Handler{
		"auth": limiters.Auth, "reset": limiters.Reset, "verify": limiters.Verify,
		"refresh": limiters.Refresh, "profile": limiters.Profile,
	} {
		if l == nil {
			t.Errorf("%s limiter should not be nil", name)
		}
	}

	handler := limiters.Auth(okHandler())
	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}
