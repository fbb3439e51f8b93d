package auth

import (
	"time"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Default lockout policy.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 30 * time.Minute
	DefaultResetTokenTTL    = 60 * time.Minute
)

// LockoutPolicy holds the thresholds used by the account state machine.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	ResetTokenTTL   time.Duration
}

// StateMachine owns transitions of an account's risk and status fields.
// It holds no per-account state; callers must serialize access to a given account.
type StateMachine struct {
	policy LockoutPolicy
}

// NewStateMachine creates a state machine. Zero policy fields take defaults.
func NewStateMachine(policy LockoutPolicy) StateMachine {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxLoginAttempts
	}
	if policy.LockoutDuration <= 0 {
		policy.LockoutDuration = DefaultLockoutDuration
	}
	if policy.ResetTokenTTL <= 0 {
		policy.ResetTokenTTL = DefaultResetTokenTTL
	}
	return StateMachine{policy: policy}
}

// Policy returns the effective policy.
func (m StateMachine) Policy() LockoutPolicy {
	return m.policy
}

// IsBlocked reports whether the account is locked out at now.
// An expired lockout is cleared in place and reported as not blocked.
func (m StateMachine) IsBlocked(a *domain.Account, now time.Time) bool {
	if a.Status != domain.StatusBlocked {
		return false
	}
	if a.BlockedUntil == nil {
		m.Unblock(a)
		return false
	}
	if now.After(*a.BlockedUntil) {
		m.Unblock(a)
		return false
	}
	return true
}

// RecordFailedAttempt counts a failed login and blocks the account once the
// threshold is reached. It returns true if this call blocked the account.
// INACTIVE accounts are never blocked, since unblocking ends in ACTIVE.
func (m StateMachine) RecordFailedAttempt(a *domain.Account, now time.Time) bool {
	a.LoginAttempts++
	a.LastLoginAttemptAt = timePtr(now)

	if a.Status == domain.StatusBlocked || a.Status == domain.StatusInactive {
		return false
	}
	if a.LoginAttempts >= m.policy.MaxAttempts {
		a.Status = domain.StatusBlocked
		a.BlockedUntil = timePtr(now.Add(m.policy.LockoutDuration))
		return true
	}
	return false
}

// RecordSuccessfulLogin stamps the login and resets the attempt counter.
func (m StateMachine) RecordSuccessfulLogin(a *domain.Account, now time.Time) {
	a.LastLoginAt = timePtr(now)
	a.LoginAttempts = 0
	a.LastLoginAttemptAt = nil
}

// Unblock moves a blocked account back to ACTIVE and clears the counter.
func (m StateMachine) Unblock(a *domain.Account) {
	a.Status = domain.StatusActive
	a.BlockedUntil = nil
	a.LoginAttempts = 0
	a.LastLoginAttemptAt = nil
}

// BeginEmailVerification attaches a verification token to the account.
func (m StateMachine) BeginEmailVerification(a *domain.Account, token string) {
	a.VerificationToken = &token
}

// CompleteEmailVerification marks the email verified and activates a
// pending account. BLOCKED and INACTIVE accounts keep their status.
func (m StateMachine) CompleteEmailVerification(a *domain.Account, now time.Time) {
	a.EmailVerified = true
	a.EmailVerifiedAt = timePtr(now)
	a.VerificationToken = nil
	if a.Status == domain.StatusPendingVerification || a.Status == domain.StatusActive {
		a.Status = domain.StatusActive
	}
}

// BeginPasswordReset attaches a reset token valid for ttl (policy default if zero).
func (m StateMachine) BeginPasswordReset(a *domain.Account, token string, now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.policy.ResetTokenTTL
	}
	a.ResetToken = &token
	a.ResetTokenExpiry = timePtr(now.Add(ttl))
	a.ResetAttempts = 0
}

// IsResetTokenValid reports whether a reset token is present and unexpired.
func (m StateMachine) IsResetTokenValid(a *domain.Account, now time.Time) bool {
	if a.ResetToken == nil || a.ResetTokenExpiry == nil {
		return false
	}
	return now.Before(*a.ResetTokenExpiry)
}

// ClearResetToken removes both reset fields.
func (m StateMachine) ClearResetToken(a *domain.Account) {
	a.ResetToken = nil
	a.ResetTokenExpiry = nil
	a.ResetAttempts = 0
}

// RecordFailedResetAttempt counts a wrong reset code. After MaxAttempts
// misses the reset token is discarded and true is returned.
func (m StateMachine) RecordFailedResetAttempt(a *domain.Account) bool {
	a.ResetAttempts++
	if a.ResetAttempts >= m.policy.MaxAttempts {
		m.ClearResetToken(a)
		return true
	}
	return false
}

func timePtr(t time.Time) *time.Time {
	return &t
}
