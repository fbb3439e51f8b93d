package auth

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
	"yopmail.com":       true,
}

// Stricter than RFC 5322 for practical use.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

const maxEmailLength = 254 // RFC 5321

// EmailRules selects optional email checks.
type EmailRules struct {
	Strict          bool
	BlockDisposable bool
}

// ValidateEmail checks the normalized form of email and returns a
// *domain.ValidationError on failure.
func ValidateEmail(email string, rules EmailRules) error {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return emailError("is required")
	}
	if len(normalized) > maxEmailLength {
		return emailError("is too long")
	}

	// Display-name forms such as "Name <a@b.c>" parse but are not addresses.
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return emailError("is not a valid address")
	}
	if rules.Strict && !emailRegex.MatchString(normalized) {
		return emailError("is not a valid address")
	}
	if rules.BlockDisposable && disposableDomains[emailDomain(normalized)] {
		return emailError("disposable addresses are not allowed")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

func emailError(msg string) error {
	return domain.NewValidationError("email", msg)
}
