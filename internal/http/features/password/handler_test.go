package password

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/auth"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

type stubService struct {
	err       error
	lastEmail string
	lastReset auth.ResetPasswordInput
}

func (s *stubService) Register(ctx context.Context, in auth.RegisterInput, meta domain.RequestMeta) (*auth.RegisterResult, error) {
	s.lastEmail = in.Email
	if s.err != nil {
		return nil, s.err
	}
	return &auth.RegisterResult{AccountID: uuid.New(), Message: "ok"}, nil
}

func (s *stubService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*auth.LoginResult, error) {
	s.lastEmail = email
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResult{
		Tokens: &domain.TokenPair{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		},
		Account: domain.AccountView{Email: email, Status: domain.StatusActive},
	}, nil
}

func (s *stubService) RequestPasswordReset(ctx context.Context, email string, meta domain.RequestMeta) error {
	s.lastEmail = email
	return s.err
}

func (s *stubService) ResetPassword(ctx context.Context, in auth.ResetPasswordInput, meta domain.RequestMeta) error {
	s.lastReset = in
	return s.err
}

func newTestHandler(svc Service) *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, httputil.DefaultCookieConfig(true), 7*24*time.Hour)
}

func post(h http.HandlerFunc, path, body string, mobile bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if mobile {
		req.Header.Set("X-Client-Type", "mobile")
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestValidation_BeforeService(t *testing.T) {
	handler := &Handler{service: nil}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		wantErr string
	}{
		{"register missing password", handler.Register, `{"email":"a@example.com"}`, "email and password are required"},
		{"register bad json", handler.Register, `{`, "invalid request body"},
		{"login missing email", handler.Login, `{"password":"x"}`, "email and password are required"},
		{"login unknown field", handler.Login, `{"identifier":"a"}`, "invalid request body"},
		{"reset request missing email", handler.RequestPasswordReset, `{}`, "email is required"},
		{"reset missing code", handler.ResetPassword, `{"email":"a@example.com","new_password":"x"}`, "email, code and new_password are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Validation should have failed before reaching service")
				}
			}()

			rec := post(tt.handler, "/", tt.body, false)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if response["error"] != tt.wantErr {
				t.Errorf("Error = %q, want %q", response["error"], tt.wantErr)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	svc := &stubService{}
	rec := post(newTestHandler(svc).Register, "/v1/auth/register", `{"email":"new@example.com","password":"Str0ng!Pass"}`, false)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.lastEmail != "new@example.com" {
		t.Errorf("email = %q", svc.lastEmail)
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"duplicate", &domain.DuplicateAccountError{Field: "email"}, http.StatusConflict},
		{"weak password", domain.NewValidationError("password", "too short"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newTestHandler(&stubService{err: tt.err}).Register, "/v1/auth/register", `{"email":"a@example.com","password":"x"}`, false)
			if rec.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestLogin_WebClientGetsCookies(t *testing.T) {
	rec := post(newTestHandler(&stubService{}).Login, "/v1/auth/login", `{"email":"user@example.com","password":"pw"}`, false)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	if c := cookies["access_token"]; c == nil || c.Value != "access" || !c.HttpOnly || !c.Secure {
		t.Errorf("access cookie = %+v", c)
	}
	if c := cookies["refresh_token"]; c == nil || c.Value != "refresh" || c.Path != "/v1/auth" {
		t.Errorf("refresh cookie = %+v", c)
	}

	var response LoginResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.AccessToken != "" || response.RefreshToken != "" {
		t.Error("web response should not carry tokens")
	}
	if response.Account.Email != "user@example.com" {
		t.Errorf("account email = %q", response.Account.Email)
	}
}

func TestLogin_MobileClientGetsBody(t *testing.T) {
	rec := post(newTestHandler(&stubService{}).Login, "/v1/auth/login", `{"email":"user@example.com","password":"pw"}`, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("mobile clients should not receive cookies")
	}

	var response LoginResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.AccessToken != "access" || response.RefreshToken != "refresh" {
		t.Errorf("response = %+v", response)
	}
}

func TestLogin_Blocked(t *testing.T) {
	until := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	rec := post(newTestHandler(&stubService{err: &domain.AccountBlockedError{Until: until}}).Login,
		"/v1/auth/login", `{"email":"user@example.com","password":"pw"}`, false)

	if rec.Code != http.StatusLocked {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusLocked)
	}
	var response map[string]string
	json.NewDecoder(rec.Body).Decode(&response)
	if response["blocked_until"] != "2026-03-01T10:30:00Z" {
		t.Errorf("blocked_until = %q", response["blocked_until"])
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	rec := post(newTestHandler(&stubService{err: domain.ErrInvalidCredentials}).Login,
		"/v1/auth/login", `{"email":"user@example.com","password":"wrong"}`, false)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login should not set cookies")
	}
}

func TestPasswordReset(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := post(h.RequestPasswordReset, "/v1/auth/password/reset-request", `{"email":"user@example.com"}`, false)
	if rec.Code != http.StatusAccepted {
		t.Errorf("reset-request: Status code = %d, want %d", rec.Code, http.StatusAccepted)
	}

	rec = post(h.ResetPassword, "/v1/auth/password/reset", `{"email":"user@example.com","code":"123456","new_password":"N3w!Passw0rd"}`, false)
	if rec.Code != http.StatusOK {
		t.Errorf("reset: Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastReset.Code != "123456" || svc.lastReset.NewPassword != "N3w!Passw0rd" {
		t.Errorf("reset input = %+v", svc.lastReset)
	}

	svc.err = domain.ErrInvalidResetCode
	rec = post(h.ResetPassword, "/v1/auth/password/reset", `{"email":"user@example.com","code":"000000","new_password":"N3w!Passw0rd"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad code: Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
