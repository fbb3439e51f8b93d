package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// RefreshTokensRepository handles refresh-token records.
type RefreshTokensRepository struct {
	db *sql.DB
}

// NewRefreshTokensRepository creates a new refresh tokens repository.
func NewRefreshTokensRepository(db *sql.DB) *RefreshTokensRepository {
	return &RefreshTokensRepository{db: db}
}

// Save stores a refresh-token record.
func (r *RefreshTokensRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, created_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.AccountID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
		token.IP, token.UserAgent,
	)
	return err
}

// FindByTokenHash retrieves a record by the digest of its token.
func (r *RefreshTokensRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, account_id, token_hash, expires_at, created_at, ip_address, user_agent
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	t := &domain.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.IP, &t.UserAgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteByTokenHash revokes one record.
func (r *RefreshTokensRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRefreshTokenNotFound
	}
	return nil
}

// DeleteByUserID revokes every record of an account.
func (r *RefreshTokensRepository) DeleteByUserID(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1`, accountID)
	return err
}

// DeleteExpired removes records whose expiry is at or before now.
func (r *RefreshTokensRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
