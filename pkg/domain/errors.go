package domain

import (
	"errors"
	"fmt"
	"time"
)

// Authentication errors
var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrInvalidToken             = errors.New("invalid or expired token")
	ErrDuplicateAccount         = errors.New("account already exists")
	ErrAccountBlocked           = errors.New("account temporarily blocked due to too many failed login attempts")
	ErrAccountInactive          = errors.New("account is inactive")
	ErrEmailNotVerified         = errors.New("email not verified")
	ErrInvalidResetCode         = errors.New("invalid or expired reset code")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

// Store errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrConcurrentUpdate     = errors.New("account was modified concurrently")
)

// ValidationError reports malformed or policy-violating input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateAccountError reports a collision on a unique account key.
type DuplicateAccountError struct {
	Field string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account with this %s already exists", e.Field)
}

func (e *DuplicateAccountError) Is(target error) bool {
	return target == ErrDuplicateAccount
}

// AccountBlockedError reports a login against a locked-out account.
type AccountBlockedError struct {
	Until time.Time
}

func (e *AccountBlockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountBlocked.Error(), e.Until.UTC().Format(time.RFC3339))
}

func (e *AccountBlockedError) Is(target error) bool {
	return target == ErrAccountBlocked
}

// ConfigurationError is a startup fault; the service must not accept traffic.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}
