package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// auditRecord accumulates one flow's audit event. finish emits it exactly once.
type auditRecord struct {
	s         *Service
	ctx       context.Context
	action    string
	meta      domain.RequestMeta
	accountID *uuid.UUID
	status    domain.AuditStatus
	details   map[string]any
	started   time.Time
}

func (s *Service) begin(ctx context.Context, action string, meta domain.RequestMeta) *auditRecord {
	return &auditRecord{
		s:       s,
		ctx:     ctx,
		action:  action,
		meta:    SanitizeMeta(meta),
		details: make(map[string]any),
		started: time.Now(),
	}
}

func (r *auditRecord) account(id uuid.UUID) {
	r.accountID = &id
}

func (r *auditRecord) detail(key string, value any) {
	r.details[key] = value
}

func (r *auditRecord) reason(reason string) {
	r.details["reason"] = reason
}

// warn marks the event WARNING regardless of the flow error.
func (r *auditRecord) warn() {
	r.status = domain.AuditWarning
}

// fail marks a flow that returns success to the caller as FAILURE.
func (r *auditRecord) fail(reason string) {
	r.status = domain.AuditFailure
	r.reason(reason)
}

func (r *auditRecord) finish(err error) {
	status := r.status
	if status == "" {
		status = domain.AuditSuccess
		if err != nil {
			status = domain.AuditFailure
		}
	}
	if err != nil {
		if _, ok := r.details["reason"]; !ok {
			r.reason(errorReason(err))
		}
	}

	outcome := "success"
	if status != domain.AuditSuccess {
		outcome, _ = r.details["reason"].(string)
	}
	if r.s.metrics != nil {
		r.s.metrics.FlowCompleted(r.action, outcome)
	}
	if err != nil && outcome == "internal_error" {
		r.s.logger.Error("auth flow failed", "action", r.action, "error", err, "duration", time.Since(r.started))
	}

	if r.s.auditSink == nil {
		return
	}
	event := &domain.AuditEvent{
		ID:        uuid.New(),
		Action:    r.action,
		AccountID: r.accountID,
		Module:    domain.AuditModuleAuth,
		Status:    status,
		Details:   r.details,
		IPAddress: r.meta.IP,
		UserAgent: r.meta.UserAgent,
		CreatedAt: r.s.now(),
	}
	if saveErr := r.s.auditSink.Save(context.WithoutCancel(r.ctx), event); saveErr != nil {
		r.s.logger.Error("failed to save audit event", "action", r.action, "error", saveErr)
	}
}

func errorReason(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation_error"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountBlocked):
		return "account_blocked"
	case errors.Is(err, domain.ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrInvalidResetCode):
		return "invalid_reset_code"
	case errors.Is(err, domain.ErrInvalidVerificationToken):
		return "invalid_verification_token"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "internal_error"
	}
}
