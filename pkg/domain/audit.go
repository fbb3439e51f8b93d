package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus is the outcome recorded on an audit event.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailure AuditStatus = "FAILURE"
	AuditWarning AuditStatus = "WARNING"
)

// Audit actions emitted by the engine.
const (
	ActionRegister             = "REGISTER"
	ActionLogin                = "LOGIN"
	ActionLogout               = "LOGOUT"
	ActionLogoutAll            = "LOGOUT_ALL"
	ActionRefresh              = "REFRESH_TOKEN"
	ActionVerifyEmail          = "VERIFY_EMAIL"
	ActionResendVerification   = "RESEND_VERIFICATION"
	ActionPasswordResetRequest = "PASSWORD_RESET_REQUEST"
	ActionPasswordReset        = "PASSWORD_RESET"
	ActionDeleteAccount        = "DELETE_ACCOUNT"
	ActionUnblockAccount       = "UNBLOCK_ACCOUNT"
)

// AuditModuleAuth is the module name for every event the engine emits.
const AuditModuleAuth = "auth"

// AuditEvent is an append-only record of a security-relevant event.
type AuditEvent struct {
	ID        uuid.UUID
	Action    string
	AccountID *uuid.UUID
	Module    string
	Status    AuditStatus
	Details   map[string]any
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// RequestMeta carries the caller's network identity into a flow.
type RequestMeta struct {
	IP        string
	UserAgent string
}
