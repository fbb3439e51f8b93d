package auth

import (
	"errors"
	"testing"

	"github.com/tendant/simple-idm-engine/internal/config"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

func TestPasswordPolicy_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		policy   *PasswordPolicy
		password string
		wantErr  bool
	}{
		{"no requirements", &PasswordPolicy{}, "a", false},
		{"min length met", &PasswordPolicy{MinLength: 8}, "12345678", false},
		{"min length short", &PasswordPolicy{MinLength: 8}, "1234567", true},
		{"min length counts runes", &PasswordPolicy{MinLength: 8}, "pässwör", true},
		{"uppercase missing", &PasswordPolicy{RequireUppercase: true}, "password", true},
		{"lowercase missing", &PasswordPolicy{RequireLowercase: true}, "PASSWORD", true},
		{"number missing", &PasswordPolicy{RequireNumber: true}, "Password", true},
		{"special missing", &PasswordPolicy{RequireSpecial: true}, "Password1", true},
		{"space is not special", &PasswordPolicy{RequireSpecial: true}, "Pass word1", true},
		{"default policy met", DefaultPasswordPolicy(), "Passw0rd!", false},
		{"default policy seven chars", DefaultPasswordPolicy(), "Pa0rd!x", true},
		{"default policy no special", DefaultPasswordPolicy(), "Passw0rdd", true},
		{"default policy no digit", DefaultPasswordPolicy(), "Password!", true},
		{"default policy no upper", DefaultPasswordPolicy(), "passw0rd!", true},
		{"default policy no lower", DefaultPasswordPolicy(), "PASSW0RD!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr *domain.ValidationError
			if err != nil && (!errors.As(err, &verr) || verr.Field != "password") {
				t.Errorf("expected password ValidationError, got %v", err)
			}
		})
	}
}

func TestNewPasswordPolicy(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordPolicyConfig{
		MinLength:        12,
		RequireUppercase: true,
		RequireNumber:    true,
	})

	if policy.MinLength != 12 || !policy.RequireUppercase || !policy.RequireNumber {
		t.Errorf("policy not copied from config: %+v", policy)
	}
	if policy.RequireLowercase || policy.RequireSpecial {
		t.Errorf("unset rules should stay off: %+v", policy)
	}
}

func TestPasswordPolicy_Requirements(t *testing.T) {
	if got := (&PasswordPolicy{}).Requirements(); got != "No password requirements" {
		t.Errorf("Requirements() = %q", got)
	}
	want := "Password must contain at least 8 characters, one uppercase letter, one lowercase letter, one number, one special character"
	if got := DefaultPasswordPolicy().Requirements(); got != want {
		t.Errorf("Requirements() = %q, want %q", got, want)
	}
}
