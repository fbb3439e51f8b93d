package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

const accountColumns = `
	id, email, username, credential_hash, role, status,
	login_attempts, last_login_attempt_at, blocked_until, last_login_at,
	email_verified, email_verified_at, verification_token,
	reset_token, reset_token_expiry, reset_attempts, version, created_at, updated_at`

// AccountsRepository handles account persistence.
type AccountsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *sql.DB) *AccountsRepository {
	return &AccountsRepository{db: db, now: time.Now}
}

// Create inserts a new account with version 1.
func (r *AccountsRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.CreateTx(ctx, r.db, account)
}

// CreateTx inserts a new account using q.
func (r *AccountsRepository) CreateTx(ctx context.Context, q Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	account.Version = 1
	_, err := q.ExecContext(ctx, query,
		account.ID, account.Email, account.Username, account.CredentialHash,
		string(account.Role), string(account.Status),
		account.LoginAttempts, account.LastLoginAttemptAt, account.BlockedUntil, account.LastLoginAt,
		account.EmailVerified, account.EmailVerifiedAt, account.VerificationToken,
		account.ResetToken, account.ResetTokenExpiry, account.ResetAttempts, account.Version,
		account.CreatedAt, account.UpdatedAt,
	)
	return mapDuplicate(err)
}

// FindByID retrieves an account by ID.
func (r *AccountsRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByEmail retrieves an account by its normalized email.
func (r *AccountsRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// FindByVerificationToken retrieves the account holding a verification token digest.
func (r *AccountsRepository) FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE verification_token = $1`, tokenHash)
}

// ExistsByEmail checks if an account exists by email.
func (r *AccountsRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// ExistsByIdentifier checks if an account exists by username, ignoring case.
func (r *AccountsRepository) ExistsByIdentifier(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	return exists, err
}

// Update writes every mutable field when the stored version still matches
// account.Version, then bumps the version. A moved row yields
// domain.ErrConcurrentUpdate; a missing row yields domain.ErrAccountNotFound.
func (r *AccountsRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET email = $3, username = $4, credential_hash = $5, role = $6, status = $7,
		    login_attempts = $8, last_login_attempt_at = $9, blocked_until = $10, last_login_at = $11,
		    email_verified = $12, email_verified_at = $13, verification_token = $14,
		    reset_token = $15, reset_token_expiry = $16, reset_attempts = $17,
		    version = version + 1, updated_at = $18
		WHERE id = $1 AND version = $2
	`
	updatedAt := r.now()
	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.Version,
		account.Email, account.Username, account.CredentialHash,
		string(account.Role), string(account.Status),
		account.LoginAttempts, account.LastLoginAttemptAt, account.BlockedUntil, account.LastLoginAt,
		account.EmailVerified, account.EmailVerifiedAt, account.VerificationToken,
		account.ResetToken, account.ResetTokenExpiry, account.ResetAttempts, updatedAt,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, account.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrAccountNotFound
		}
		return domain.ErrConcurrentUpdate
	}

	account.Version++
	account.UpdatedAt = updatedAt
	return nil
}

// Delete permanently deletes an account. Refresh tokens cascade.
func (r *AccountsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
}

func (r *AccountsRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a      domain.Account
		role   string
		status string
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.CredentialHash, &role, &status,
		&a.LoginAttempts, &a.LastLoginAttemptAt, &a.BlockedUntil, &a.LastLoginAt,
		&a.EmailVerified, &a.EmailVerifiedAt, &a.VerificationToken,
		&a.ResetToken, &a.ResetTokenExpiry, &a.ResetAttempts, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.Status = domain.AccountStatus(status)
	return &a, nil
}

// mapDuplicate turns unique violations on email or username into
// *domain.DuplicateAccountError.
func mapDuplicate(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	switch constraint {
	case "accounts_email_key":
		return &domain.DuplicateAccountError{Field: "email"}
	case "accounts_username_key":
		return &domain.DuplicateAccountError{Field: "username"}
	}
	return err
}
