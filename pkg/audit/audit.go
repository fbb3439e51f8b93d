// Package audit delivers security events to an append-only sink without
// blocking the authentication path.
package audit

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Sink persists audit events.
type Sink interface {
	Save(ctx context.Context, event *domain.AuditEvent) error
}

// LogSink writes audit events as structured log records.
type LogSink struct {
	Logger *slog.Logger
}

// Save implements Sink.
func (s LogSink) Save(_ context.Context, event *domain.AuditEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"audit_id", event.ID,
		"action", event.Action,
		"module", event.Module,
		"status", event.Status,
		"ip", event.IPAddress,
	}
	if event.AccountID != nil {
		attrs = append(attrs, "account_id", event.AccountID.String())
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, "details", event.Details)
	}
	logger.Info("audit", attrs...)
	return nil
}

// MultiSink saves to every sink and returns the first error.
type MultiSink []Sink

// Save implements Sink.
func (m MultiSink) Save(ctx context.Context, event *domain.AuditEvent) error {
	var first error
	for _, s := range m {
		if err := s.Save(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
