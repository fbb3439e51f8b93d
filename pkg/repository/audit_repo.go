package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// AuditRepository appends audit events.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save inserts one event.
func (r *AuditRepository) Save(ctx context.Context, event *domain.AuditEvent) error {
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, action, account_id, module, status, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Action, nullUUID(event.AccountID), event.Module, string(event.Status),
		string(raw), event.IPAddress, event.UserAgent, event.CreatedAt,
	)
	return err
}

// ListByAccount returns the most recent events for an account, newest first.
func (r *AuditRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*domain.AuditEvent, error) {
	query := `
		SELECT id, action, account_id, module, status, details, ip_address, user_agent, created_at
		FROM audit_events
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var (
			e      domain.AuditEvent
			acct   uuid.NullUUID
			status string
			raw    []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &acct, &e.Module, &status, &raw, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		if acct.Valid {
			e.AccountID = &acct.UUID
		}
		e.Status = domain.AuditStatus(status)
		if err := json.Unmarshal(raw, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal audit details: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
