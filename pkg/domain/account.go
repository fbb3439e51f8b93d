package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive              AccountStatus = "ACTIVE"
	StatusInactive            AccountStatus = "INACTIVE"
	StatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
	StatusBlocked             AccountStatus = "BLOCKED"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPendingVerification, StatusBlocked:
		return true
	}
	return false
}

// Role is a capability tier.
type Role string

const (
	RoleClient  Role = "client"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleManager:
		return true
	}
	return false
}

// Account represents a registered principal and its security state.
type Account struct {
	ID             uuid.UUID
	Email          string
	Username       *string
	CredentialHash string
	Role           Role
	Status         AccountStatus

	LoginAttempts      int
	LastLoginAttemptAt *time.Time
	BlockedUntil       *time.Time
	LastLoginAt        *time.Time

	EmailVerified     bool
	EmailVerifiedAt   *time.Time
	VerificationToken *string

	ResetToken       *string
	ResetTokenExpiry *time.Time
	ResetAttempts    int

	// Version is bumped by every successful store update.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	errBlockedUntilMismatch = errors.New("blocked_until must be set if and only if status is BLOCKED")
	errResetFieldsMismatch  = errors.New("reset token and reset token expiry must be set together")
	errNegativeAttempts     = errors.New("login attempts must not be negative")
)

// Validate checks the structural invariants of the security fields.
func (a *Account) Validate() error {
	if (a.BlockedUntil != nil) != (a.Status == StatusBlocked) {
		return errBlockedUntilMismatch
	}
	if (a.ResetToken != nil) != (a.ResetTokenExpiry != nil) {
		return errResetFieldsMismatch
	}
	if a.LoginAttempts < 0 {
		return errNegativeAttempts
	}
	return nil
}

// View returns the sanitized projection of the account.
func (a *Account) View() AccountView {
	return AccountView{
		ID:            a.ID,
		Email:         a.Email,
		Username:      a.Username,
		Role:          a.Role,
		Status:        a.Status,
		EmailVerified: a.EmailVerified,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
	}
}

// AccountView is what callers outside the engine may see of an account.
type AccountView struct {
	ID            uuid.UUID     `json:"id"`
	Email         string        `json:"email"`
	Username      *string       `json:"username,omitempty"`
	Role          Role          `json:"role"`
	Status        AccountStatus `json:"status"`
	EmailVerified bool          `json:"email_verified"`
	LastLoginAt   *time.Time    `json:"last_login_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
