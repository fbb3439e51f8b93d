package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

type stubService struct {
	deleted uuid.UUID
}

func (s *stubService) Account(ctx context.Context, accountID uuid.UUID) (*domain.AccountView, error) {
	return &domain.AccountView{ID: accountID, Email: "user@example.com", Status: domain.StatusActive}, nil
}

func (s *stubService) DeleteAccount(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) error {
	s.deleted = accountID
	return nil
}

func authed(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(httputil.WithAuth(r.Context(), httputil.AuthContext{AccountID: id, Role: domain.RoleClient}))
}

func TestGetMe(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), &stubService{}, httputil.DefaultCookieConfig(false))

	rec := httptest.NewRecorder()
	h.GetMe(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without auth: Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	id := uuid.New()
	rec = httptest.NewRecorder()
	h.GetMe(rec, authed(httptest.NewRequest(http.MethodGet, "/v1/me", nil), id))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body)
	if body["id"] != id.String() {
		t.Errorf("id = %v, want %v", body["id"], id)
	}
	for _, secret := range []string{"credential_hash", "reset_token", "verification_token"} {
		if _, ok := body[secret]; ok {
			t.Errorf("response exposes %s", secret)
		}
	}
}

func TestDeleteMe(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, httputil.DefaultCookieConfig(false))

	id := uuid.New()
	rec := httptest.NewRecorder()
	h.DeleteMe(rec, authed(httptest.NewRequest(http.MethodDelete, "/v1/me", nil), id))

	if rec.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if svc.deleted != id {
		t.Errorf("deleted = %v, want %v", svc.deleted, id)
	}
	if len(rec.Result().Cookies()) != 2 {
		t.Errorf("expected both auth cookies to be cleared, got %d", len(rec.Result().Cookies()))
	}
}
