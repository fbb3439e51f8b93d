package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		rules   EmailRules
		wantErr bool
	}{
		{"valid", "test@example.com", EmailRules{}, false},
		{"subdomain", "test@mail.example.com", EmailRules{}, false},
		{"plus tag", "test+tag@example.com", EmailRules{}, false},
		{"mixed case with spaces", "  Test@Example.COM ", EmailRules{Strict: true}, false},
		{"empty", "", EmailRules{}, true},
		{"whitespace only", "   ", EmailRules{}, true},
		{"no at", "invalid.com", EmailRules{}, true},
		{"no domain", "test@", EmailRules{}, true},
		{"no local part", "@example.com", EmailRules{}, true},
		{"display name", "Test <test@example.com>", EmailRules{}, true},
		{"too long", strings.Repeat("a", 250) + "@example.com", EmailRules{}, true},
		{"strict rejects bare host", "test@localhost", EmailRules{Strict: true}, true},
		{"disposable blocked", "test@tempmail.com", EmailRules{BlockDisposable: true}, true},
		{"disposable allowed", "test@tempmail.com", EmailRules{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email, tt.rules)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
			var verr *domain.ValidationError
			if err != nil && (!errors.As(err, &verr) || verr.Field != "email") {
				t.Errorf("expected email ValidationError, got %v", err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	for in, want := range map[string]string{
		"Test@Example.COM":     "test@example.com",
		"  test@example.com  ": "test@example.com",
		"\tUSER@host.io\n":     "user@host.io",
	} {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
