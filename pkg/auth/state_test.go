package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

func newTestAccount(status domain.AccountStatus) *domain.Account {
	return &domain.Account{
		ID:     uuid.New(),
		Email:  "user@example.com",
		Role:   domain.RoleClient,
		Status: status,
	}
}

func TestNewStateMachine_Defaults(t *testing.T) {
	p := NewStateMachine(LockoutPolicy{}).Policy()
	if p.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", p.MaxAttempts)
	}
	if p.LockoutDuration != 30*time.Minute {
		t.Errorf("LockoutDuration = %v, want 30m", p.LockoutDuration)
	}
	if p.ResetTokenTTL != 60*time.Minute {
		t.Errorf("ResetTokenTTL = %v, want 60m", p.ResetTokenTTL)
	}

	custom := NewStateMachine(LockoutPolicy{MaxAttempts: 3, LockoutDuration: time.Minute}).Policy()
	if custom.MaxAttempts != 3 || custom.LockoutDuration != time.Minute {
		t.Errorf("custom policy not kept: %+v", custom)
	}
}

func TestStateMachine_FailuresBelowThreshold(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for k := 1; k < 5; k++ {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			a := newTestAccount(domain.StatusActive)
			for i := 0; i < k; i++ {
				if m.RecordFailedAttempt(a, now.Add(time.Duration(i)*time.Second)) {
					t.Fatalf("attempt %d should not block", i+1)
				}
			}
			if a.Status != domain.StatusActive {
				t.Errorf("after %d failures status = %s, want ACTIVE", k, a.Status)
			}
			if a.LoginAttempts != k {
				t.Errorf("LoginAttempts = %d, want %d", a.LoginAttempts, k)
			}
			if a.BlockedUntil != nil {
				t.Error("BlockedUntil should be nil")
			}
		})
	}
}

func TestStateMachine_FifthFailureBlocks(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := newTestAccount(domain.StatusActive)
	a.LoginAttempts = 4

	if !m.RecordFailedAttempt(a, at) {
		t.Fatal("fifth failure should report a new block")
	}
	if a.Status != domain.StatusBlocked {
		t.Errorf("Status = %s, want BLOCKED", a.Status)
	}
	if a.LoginAttempts != 5 {
		t.Errorf("LoginAttempts = %d, want 5", a.LoginAttempts)
	}
	if a.BlockedUntil == nil || !a.BlockedUntil.Equal(at.Add(30*time.Minute)) {
		t.Errorf("BlockedUntil = %v, want %v", a.BlockedUntil, at.Add(30*time.Minute))
	}
	if a.LastLoginAttemptAt == nil || !a.LastLoginAttemptAt.Equal(at) {
		t.Errorf("LastLoginAttemptAt = %v, want %v", a.LastLoginAttemptAt, at)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("invariants broken: %v", err)
	}
}

func TestStateMachine_IsBlocked(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	until := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		status       domain.AccountStatus
		blockedUntil *time.Time
		now          time.Time
		want         bool
		wantStatus   domain.AccountStatus
	}{
		{"active", domain.StatusActive, nil, until, false, domain.StatusActive},
		{"pending", domain.StatusPendingVerification, nil, until, false, domain.StatusPendingVerification},
		{"blocked without until", domain.StatusBlocked, nil, until, false, domain.StatusActive},
		{"blocked before until", domain.StatusBlocked, &until, until.Add(-time.Minute), true, domain.StatusBlocked},
		{"blocked at until", domain.StatusBlocked, &until, until, true, domain.StatusBlocked},
		{"blocked after until", domain.StatusBlocked, &until, until.Add(time.Second), false, domain.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAccount(tt.status)
			a.BlockedUntil = tt.blockedUntil
			a.LoginAttempts = 5

			if got := m.IsBlocked(a, tt.now); got != tt.want {
				t.Errorf("IsBlocked() = %v, want %v", got, tt.want)
			}
			if a.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", a.Status, tt.wantStatus)
			}
		})
	}
}

func TestStateMachine_ExpiredLockoutSelfHeals(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	until := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	lastAttempt := until.Add(-30 * time.Minute)

	a := newTestAccount(domain.StatusBlocked)
	a.BlockedUntil = &until
	a.LoginAttempts = 5
	a.LastLoginAttemptAt = &lastAttempt

	if m.IsBlocked(a, until.Add(31*time.Minute)) {
		t.Fatal("expired lockout should not block")
	}
	if a.Status != domain.StatusActive {
		t.Errorf("Status = %s, want ACTIVE", a.Status)
	}
	if a.LoginAttempts != 0 {
		t.Errorf("LoginAttempts = %d, want 0", a.LoginAttempts)
	}
	if a.BlockedUntil != nil || a.LastLoginAttemptAt != nil {
		t.Error("BlockedUntil and LastLoginAttemptAt should be cleared")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("invariants broken: %v", err)
	}
}

func TestStateMachine_SuccessResetsCounter(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	now := time.Now()

	for _, prior := range []int{0, 1, 4, 17} {
		a := newTestAccount(domain.StatusActive)
		a.LoginAttempts = prior
		a.LastLoginAttemptAt = &now

		m.RecordSuccessfulLogin(a, now)

		if a.LoginAttempts != 0 {
			t.Errorf("prior=%d: LoginAttempts = %d, want 0", prior, a.LoginAttempts)
		}
		if a.LastLoginAttemptAt != nil {
			t.Errorf("prior=%d: LastLoginAttemptAt should be cleared", prior)
		}
		if a.LastLoginAt == nil || !a.LastLoginAt.Equal(now) {
			t.Errorf("prior=%d: LastLoginAt = %v, want %v", prior, a.LastLoginAt, now)
		}
	}
}

func TestStateMachine_EmailVerification(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	now := time.Now()

	a := newTestAccount(domain.StatusPendingVerification)
	m.BeginEmailVerification(a, "token-digest")

	if a.VerificationToken == nil || *a.VerificationToken != "token-digest" {
		t.Fatalf("VerificationToken = %v", a.VerificationToken)
	}
	if a.Status != domain.StatusPendingVerification {
		t.Errorf("Status = %s, want PENDING_VERIFICATION", a.Status)
	}

	m.CompleteEmailVerification(a, now)

	if !a.EmailVerified {
		t.Error("EmailVerified should be true")
	}
	if a.EmailVerifiedAt == nil || !a.EmailVerifiedAt.Equal(now) {
		t.Errorf("EmailVerifiedAt = %v, want %v", a.EmailVerifiedAt, now)
	}
	if a.VerificationToken != nil {
		t.Error("VerificationToken should be cleared")
	}
	if a.Status != domain.StatusActive {
		t.Errorf("Status = %s, want ACTIVE", a.Status)
	}
}

func TestStateMachine_EmailVerificationKeepsLockout(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	now := time.Now()
	until := now.Add(10 * time.Minute)

	blocked := newTestAccount(domain.StatusBlocked)
	blocked.BlockedUntil = &until
	m.CompleteEmailVerification(blocked, now)
	if blocked.Status != domain.StatusBlocked || !blocked.EmailVerified {
		t.Errorf("blocked account: status = %s verified = %v", blocked.Status, blocked.EmailVerified)
	}
	if err := blocked.Validate(); err != nil {
		t.Errorf("invariants broken: %v", err)
	}

	inactive := newTestAccount(domain.StatusInactive)
	m.CompleteEmailVerification(inactive, now)
	if inactive.Status != domain.StatusInactive {
		t.Errorf("inactive account: status = %s, want INACTIVE", inactive.Status)
	}
}

func TestStateMachine_ResetTokenWindow(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := newTestAccount(domain.StatusActive)
	if m.IsResetTokenValid(a, at) {
		t.Error("no reset token should be invalid")
	}

	m.BeginPasswordReset(a, "code-digest", at, 60*time.Minute)

	if !m.IsResetTokenValid(a, at.Add(59*time.Minute)) {
		t.Error("reset token should be valid at T+59m")
	}
	if m.IsResetTokenValid(a, at.Add(60*time.Minute)) {
		t.Error("reset token should be invalid at T+60m")
	}
	if m.IsResetTokenValid(a, at.Add(61*time.Minute)) {
		t.Error("reset token should be invalid at T+61m")
	}

	m.ClearResetToken(a)
	if a.ResetToken != nil || a.ResetTokenExpiry != nil {
		t.Error("ClearResetToken should clear both fields")
	}
	if m.IsResetTokenValid(a, at) {
		t.Error("cleared reset token should be invalid")
	}
}

func TestStateMachine_ResetTokenDefaultTTL(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{ResetTokenTTL: 10 * time.Minute})
	at := time.Now()

	a := newTestAccount(domain.StatusActive)
	m.BeginPasswordReset(a, "code-digest", at, 0)

	if a.ResetTokenExpiry == nil || !a.ResetTokenExpiry.Equal(at.Add(10*time.Minute)) {
		t.Errorf("ResetTokenExpiry = %v, want %v", a.ResetTokenExpiry, at.Add(10*time.Minute))
	}
}

func TestStateMachine_FailedAttemptsNeverBlockInactive(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{})
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := newTestAccount(domain.StatusInactive)
	for i := 0; i < 10; i++ {
		if m.RecordFailedAttempt(a, now) {
			t.Fatalf("attempt %d blocked an inactive account", i+1)
		}
	}
	if a.Status != domain.StatusInactive || a.BlockedUntil != nil {
		t.Errorf("status=%s blocked_until=%v, want INACTIVE/nil", a.Status, a.BlockedUntil)
	}
}

func TestStateMachine_RecordFailedResetAttempt(t *testing.T) {
	m := NewStateMachine(LockoutPolicy{MaxAttempts: 3})
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := newTestAccount(domain.StatusActive)
	m.BeginPasswordReset(a, "code-digest", now, time.Hour)

	if m.RecordFailedResetAttempt(a) || m.RecordFailedResetAttempt(a) {
		t.Fatal("reset token discarded too early")
	}
	if !m.IsResetTokenValid(a, now) || a.ResetAttempts != 2 {
		t.Fatalf("after 2 misses: valid=%v attempts=%d", m.IsResetTokenValid(a, now), a.ResetAttempts)
	}
	if !m.RecordFailedResetAttempt(a) {
		t.Fatal("third miss should discard the reset token")
	}
	if a.ResetToken != nil || a.ResetTokenExpiry != nil || a.ResetAttempts != 0 {
		t.Errorf("reset state not cleared: %+v", a)
	}

	m.BeginPasswordReset(a, "next-digest", now, time.Hour)
	if a.ResetAttempts != 0 {
		t.Errorf("ResetAttempts = %d after new reset, want 0", a.ResetAttempts)
	}
}
