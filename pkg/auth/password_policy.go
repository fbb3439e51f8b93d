package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tendant/simple-idm-engine/internal/config"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// PasswordPolicy defines password complexity requirements.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// DefaultPasswordPolicy requires 8 characters with upper, lower, digit and special.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns a *domain.ValidationError for the first unmet rule.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		return passwordError(fmt.Sprintf("must be at least %d characters long", p.MinLength))
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}

	switch {
	case p.RequireUppercase && !upper:
		return passwordError("must contain at least one uppercase letter")
	case p.RequireLowercase && !lower:
		return passwordError("must contain at least one lowercase letter")
	case p.RequireNumber && !digit:
		return passwordError("must contain at least one number")
	case p.RequireSpecial && !special:
		return passwordError("must contain at least one special character")
	}
	return nil
}

// Requirements returns a human-readable description of the policy.
func (p *PasswordPolicy) Requirements() string {
	var requirements []string
	if p.MinLength > 0 {
		requirements = append(requirements, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.RequireUppercase {
		requirements = append(requirements, "one uppercase letter")
	}
	if p.RequireLowercase {
		requirements = append(requirements, "one lowercase letter")
	}
	if p.RequireNumber {
		requirements = append(requirements, "one number")
	}
	if p.RequireSpecial {
		requirements = append(requirements, "one special character")
	}
	if len(requirements) == 0 {
		return "No password requirements"
	}
	return "Password must contain " + strings.Join(requirements, ", ")
}

func passwordError(msg string) error {
	return domain.NewValidationError("password", msg)
}
