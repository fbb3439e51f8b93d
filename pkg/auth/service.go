package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
	"github.com/tendant/simple-idm-engine/pkg/lock"
)

const (
	verificationTokenLen = 32
	emailSendTimeout     = 30 * time.Second

	registerMessage = "Registration successful. Please check your email to verify your account."
)

// AccountStore persists accounts. Lookups return domain.ErrAccountNotFound
// when nothing matches; Update returns domain.ErrConcurrentUpdate when the
// stored version no longer matches the account's Version.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByIdentifier(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStore persists the revocable records behind refresh tokens.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	DeleteByUserID(ctx context.Context, accountID uuid.UUID) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditSink records security events.
type AuditSink interface {
	Save(ctx context.Context, event *domain.AuditEvent) error
}

// Mailer delivers account lifecycle emails.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, code string) error
	SendAccountBlockedEmail(ctx context.Context, to string, until time.Time) error
}

// Metrics observes flow outcomes.
type Metrics interface {
	FlowCompleted(action, outcome string)
	AccountLocked()
}

// ServiceConfig holds orchestration settings.
type ServiceConfig struct {
	Lockout              LockoutPolicy
	PasswordPolicy       *PasswordPolicy
	EmailRules           EmailRules
	RequireVerifiedEmail bool
	Logger               *slog.Logger
	Now                  func() time.Time
}

// Dependencies are the collaborators of a Service. Accounts, Hasher and
// Tokens are required.
type Dependencies struct {
	Accounts      AccountStore
	RefreshTokens RefreshTokenStore
	Audit         AuditSink
	Mailer        Mailer
	Hasher        Hasher
	Tokens        *TokenIssuer
	Locker        lock.Locker
	Metrics       Metrics
}

// Service sequences registration, login, refresh, logout and account
// recovery against the account store.
type Service struct {
	cfg       ServiceConfig
	machine   StateMachine
	accounts  AccountStore
	refresh   RefreshTokenStore
	auditSink AuditSink
	mailer    Mailer
	hasher    Hasher
	tokens    *TokenIssuer
	locker    lock.Locker
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
	async     func(func())
	pending   sync.WaitGroup
	dummyHash string
}

// RegisterInput is the input to Register.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// RegisterResult is returned by a successful Register.
type RegisterResult struct {
	AccountID uuid.UUID `json:"account_id"`
	Message   string    `json:"message"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Tokens  *domain.TokenPair  `json:"tokens"`
	Account domain.AccountView `json:"account"`
}

// ResetPasswordInput is the input to ResetPassword.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// NewService creates the auth orchestrator.
func NewService(cfg ServiceConfig, deps Dependencies) (*Service, error) {
	if deps.Accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if deps.Hasher == nil {
		return nil, errors.New("auth: hasher is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if cfg.PasswordPolicy == nil {
		cfg.PasswordPolicy = DefaultPasswordPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Unknown emails are compared against this hash so both login failures cost the same.
	dummy, err := deps.Hasher.Hash("timing-equalization-secret")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare hasher: %w", err)
	}

	svc := &Service{
		cfg:       cfg,
		machine:   NewStateMachine(cfg.Lockout),
		accounts:  deps.Accounts,
		refresh:   deps.RefreshTokens,
		auditSink: deps.Audit,
		mailer:    deps.Mailer,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		locker:    deps.Locker,
		metrics:   deps.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
		dummyHash: dummy,
	}
	svc.async = svc.track
	return svc, nil
}

// track runs f in its own goroutine and counts it until it returns.
func (s *Service) track(f func()) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		f()
	}()
}

// Wait blocks until background email deliveries finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// StateMachine returns the account state machine.
func (s *Service) StateMachine() StateMachine {
	return s.machine
}

// Register creates a PENDING_VERIFICATION account and sends a verification email.
func (s *Service) Register(ctx context.Context, in RegisterInput, meta domain.RequestMeta) (_ *RegisterResult, err error) {
	rec := s.begin(ctx, domain.ActionRegister, meta)
	defer func() { rec.finish(err) }()

	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email, s.cfg.EmailRules); err != nil {
		return nil, err
	}
	if err := s.cfg.PasswordPolicy.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	var username *string
	if u := strings.TrimSpace(in.Username); u != "" {
		if err := ValidateUsername(u); err != nil {
			return nil, err
		}
		username = &u
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, &domain.DuplicateAccountError{Field: "email"}
	}
	if username != nil {
		exists, err := s.accounts.ExistsByIdentifier(ctx, *username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			return nil, &domain.DuplicateAccountError{Field: "username"}
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := GenerateToken(verificationTokenLen)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	now := s.now()
	account := &domain.Account{
		ID:             uuid.New(),
		Email:          email,
		Username:       username,
		CredentialHash: hash,
		Role:           domain.RoleClient,
		Status:         domain.StatusPendingVerification,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.machine.BeginEmailVerification(account, HashToken(token))

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	rec.account(account.ID)

	s.sendEmail("verification", account.ID, func(ctx context.Context, m Mailer) error {
		return m.SendVerificationEmail(ctx, email, token)
	})

	return &RegisterResult{AccountID: account.ID, Message: registerMessage}, nil
}

// Login authenticates email and password and returns a token pair.
// Unknown email and wrong password both return domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (_ *LoginResult, err error) {
	rec := s.begin(ctx, domain.ActionLogin, meta)
	defer func() { rec.finish(err) }()

	found, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.hasher.Compare(password, s.dummyHash)
		rec.reason("unknown_account")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	rec.account(found.ID)

	unlock, err := s.locker.Lock(ctx, found.ID.String())
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	defer unlock()

	account, err := s.accounts.FindByID(ctx, found.ID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		rec.reason("unknown_account")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("reload account: %w", err)
	}

	now := s.now()
	wasBlocked := account.Status == domain.StatusBlocked
	if s.machine.IsBlocked(account, now) {
		rec.warn()
		rec.detail("blocked_until", account.BlockedUntil.UTC().Format(time.RFC3339))
		return nil, &domain.AccountBlockedError{Until: *account.BlockedUntil}
	}
	healed := wasBlocked && account.Status != domain.StatusBlocked

	if !s.hasher.Compare(password, account.CredentialHash) {
		if account.Status == domain.StatusInactive {
			rec.reason("invalid_password")
			return nil, domain.ErrInvalidCredentials
		}
		blocked := s.machine.RecordFailedAttempt(account, now)
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		rec.reason("invalid_password")
		rec.detail("login_attempts", account.LoginAttempts)
		if blocked {
			s.onLocked(account, rec)
		}
		return nil, domain.ErrInvalidCredentials
	}

	if account.Status == domain.StatusInactive {
		return nil, domain.ErrAccountInactive
	}
	if s.cfg.RequireVerifiedEmail && !account.EmailVerified {
		if healed {
			if err := s.accounts.Update(ctx, account); err != nil {
				return nil, fmt.Errorf("persist unblock: %w", err)
			}
		}
		return nil, domain.ErrEmailNotVerified
	}

	s.machine.RecordSuccessfulLogin(account, now)
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	pair, err := s.tokens.IssueTokenPair(payloadFor(account))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if s.refresh != nil {
		record := &domain.RefreshToken{
			ID:        uuid.New(),
			AccountID: account.ID,
			TokenHash: HashToken(pair.RefreshToken),
			ExpiresAt: now.Add(s.tokens.RefreshTokenTTL()),
			CreatedAt: now,
			IP:        rec.meta.IP,
			UserAgent: rec.meta.UserAgent,
		}
		if err := s.refresh.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("save refresh token: %w", err)
		}
	}

	return &LoginResult{Tokens: pair, Account: account.View()}, nil
}

// Refresh issues a new access token for a valid, unrevoked refresh token
// after checking the account is not blocked.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (_ *domain.AccessToken, err error) {
	rec := s.begin(ctx, domain.ActionRefresh, meta)
	defer func() { rec.finish(err) }()

	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	rec.account(payload.AccountID)

	now := s.now()
	if s.refresh != nil {
		record, err := s.refresh.FindByTokenHash(ctx, HashToken(refreshToken))
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			rec.reason("revoked")
			return nil, domain.ErrInvalidToken
		}
		if err != nil {
			return nil, fmt.Errorf("find refresh token: %w", err)
		}
		if record.IsExpired(now) || record.AccountID != payload.AccountID {
			return nil, domain.ErrInvalidToken
		}
	}

	unlock, err := s.locker.Lock(ctx, payload.AccountID.String())
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	defer unlock()

	account, err := s.accounts.FindByID(ctx, payload.AccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	wasBlocked := account.Status == domain.StatusBlocked
	if s.machine.IsBlocked(account, now) {
		rec.warn()
		return nil, &domain.AccountBlockedError{Until: *account.BlockedUntil}
	}
	if wasBlocked && account.Status != domain.StatusBlocked {
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("persist unblock: %w", err)
		}
	}
	if account.Status == domain.StatusInactive {
		return nil, domain.ErrAccountInactive
	}

	access, err := s.tokens.IssueAccessToken(payloadFor(account))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout revokes the record behind refreshToken.
func (s *Service) Logout(ctx context.Context, refreshToken string, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionLogout, meta)
	defer func() { rec.finish(err) }()

	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return domain.ErrInvalidToken
	}
	rec.account(payload.AccountID)

	if s.refresh == nil {
		return nil
	}
	if err := s.refresh.DeleteByTokenHash(ctx, HashToken(refreshToken)); err != nil && !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of the account.
func (s *Service) LogoutAll(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionLogoutAll, meta)
	rec.account(accountID)
	defer func() { rec.finish(err) }()

	if s.refresh == nil {
		return nil
	}
	if err := s.refresh.DeleteByUserID(ctx, accountID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// VerifyEmail completes email verification for the account holding token.
func (s *Service) VerifyEmail(ctx context.Context, token string, meta domain.RequestMeta) (_ *domain.AccountView, err error) {
	rec := s.begin(ctx, domain.ActionVerifyEmail, meta)
	defer func() { rec.finish(err) }()

	if token == "" {
		return nil, domain.ErrInvalidVerificationToken
	}
	digest := HashToken(token)

	found, err := s.accounts.FindByVerificationToken(ctx, digest)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidVerificationToken
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	rec.account(found.ID)

	view, err := s.withAccount(ctx, found.ID, func(account *domain.Account) (bool, error) {
		if account.VerificationToken == nil || !constantTimeEqual(*account.VerificationToken, digest) {
			return false, domain.ErrInvalidVerificationToken
		}
		s.machine.CompleteEmailVerification(account, s.now())
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ResendVerification issues a fresh verification token. Unknown or already
// verified emails succeed silently.
func (s *Service) ResendVerification(ctx context.Context, email string, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionResendVerification, meta)
	defer func() { rec.finish(err) }()

	found, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		rec.fail("unknown_account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	rec.account(found.ID)

	var token string
	_, err = s.withAccount(ctx, found.ID, func(account *domain.Account) (bool, error) {
		if account.EmailVerified {
			return false, nil
		}
		t, err := GenerateToken(verificationTokenLen)
		if err != nil {
			return false, fmt.Errorf("generate verification token: %w", err)
		}
		token = t
		s.machine.BeginEmailVerification(account, HashToken(token))
		return true, nil
	})
	if err != nil {
		return err
	}
	if token == "" {
		rec.fail("already_verified")
		return nil
	}

	to := found.Email
	s.sendEmail("verification", found.ID, func(ctx context.Context, m Mailer) error {
		return m.SendVerificationEmail(ctx, to, token)
	})
	return nil
}

// RequestPasswordReset emails a 6-digit reset code. Unknown emails succeed
// silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionPasswordResetRequest, meta)
	defer func() { rec.finish(err) }()

	found, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		rec.fail("unknown_account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	rec.account(found.ID)

	code, err := GenerateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	_, err = s.withAccount(ctx, found.ID, func(account *domain.Account) (bool, error) {
		s.machine.BeginPasswordReset(account, HashToken(code), s.now(), 0)
		return true, nil
	})
	if err != nil {
		return err
	}

	to := found.Email
	s.sendEmail("password_reset", found.ID, func(ctx context.Context, m Mailer) error {
		return m.SendPasswordResetEmail(ctx, to, code)
	})
	return nil
}

// ResetPassword replaces the password when code matches an unexpired reset
// token, then revokes every refresh token of the account. Wrong, used and
// expired codes all return domain.ErrInvalidResetCode.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionPasswordReset, meta)
	defer func() { rec.finish(err) }()

	found, err := s.accounts.FindByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		rec.reason("unknown_account")
		return domain.ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	rec.account(found.ID)

	digest := HashToken(in.Code)
	_, err = s.withAccount(ctx, found.ID, func(account *domain.Account) (bool, error) {
		now := s.now()
		if !s.machine.IsResetTokenValid(account, now) {
			if account.ResetToken != nil {
				s.machine.ClearResetToken(account)
				return true, domain.ErrInvalidResetCode
			}
			return false, domain.ErrInvalidResetCode
		}
		if !constantTimeEqual(*account.ResetToken, digest) {
			if s.machine.RecordFailedResetAttempt(account) {
				rec.detail("reset_token_discarded", true)
			}
			return true, domain.ErrInvalidResetCode
		}
		if err := s.cfg.PasswordPolicy.ValidatePassword(in.NewPassword); err != nil {
			return false, err
		}
		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return false, fmt.Errorf("hash password: %w", err)
		}
		account.CredentialHash = hash
		s.machine.ClearResetToken(account)
		return true, nil
	})
	if err != nil {
		return err
	}

	if s.refresh != nil {
		if err := s.refresh.DeleteByUserID(ctx, found.ID); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
	}
	return nil
}

// Account returns the sanitized view of an account.
func (s *Service) Account(ctx context.Context, accountID uuid.UUID) (*domain.AccountView, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	view := account.View()
	return &view, nil
}

// DeleteAccount removes an account and its refresh tokens.
func (s *Service) DeleteAccount(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) (err error) {
	rec := s.begin(ctx, domain.ActionDeleteAccount, meta)
	rec.account(accountID)
	defer func() { rec.finish(err) }()

	unlock, err := s.locker.Lock(ctx, accountID.String())
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	defer unlock()

	if s.refresh != nil {
		if err := s.refresh.DeleteByUserID(ctx, accountID); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return err
	}
	return nil
}

// UnblockAccount lifts a lockout before it expires.
func (s *Service) UnblockAccount(ctx context.Context, accountID uuid.UUID, meta domain.RequestMeta) (_ *domain.AccountView, err error) {
	rec := s.begin(ctx, domain.ActionUnblockAccount, meta)
	rec.account(accountID)
	defer func() { rec.finish(err) }()

	return s.withAccount(ctx, accountID, func(account *domain.Account) (bool, error) {
		if account.Status != domain.StatusBlocked {
			return false, nil
		}
		s.machine.Unblock(account)
		return true, nil
	})
}

// PurgeExpiredRefreshTokens deletes refresh-token records past their expiry.
func (s *Service) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	if s.refresh == nil {
		return 0, nil
	}
	return s.refresh.DeleteExpired(ctx, s.now())
}

// withAccount runs fn on a fresh copy of the account while holding its lock
// and persists it when fn reports a change. The change is persisted even
// when fn also returns an error.
func (s *Service) withAccount(ctx context.Context, id uuid.UUID, fn func(*domain.Account) (bool, error)) (*domain.AccountView, error) {
	unlock, err := s.locker.Lock(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	defer unlock()

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, fnErr := fn(account)
	if changed {
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
	}
	if fnErr != nil {
		return nil, fnErr
	}
	view := account.View()
	return &view, nil
}

func (s *Service) onLocked(account *domain.Account, rec *auditRecord) {
	until := *account.BlockedUntil
	rec.detail("blocked_until", until.UTC().Format(time.RFC3339))
	if s.metrics != nil {
		s.metrics.AccountLocked()
	}
	s.logger.Warn("account locked after failed logins",
		"account_id", account.ID,
		"attempts", account.LoginAttempts,
		"blocked_until", until,
	)

	to := account.Email
	s.sendEmail("account_blocked", account.ID, func(ctx context.Context, m Mailer) error {
		return m.SendAccountBlockedEmail(ctx, to, until)
	})
}

// sendEmail delivers in the background; failures are logged only.
func (s *Service) sendEmail(kind string, accountID uuid.UUID, send func(context.Context, Mailer) error) {
	if s.mailer == nil {
		s.logger.Debug("email not configured, skipping", "kind", kind, "account_id", accountID)
		return
	}
	mailer := s.mailer
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := send(ctx, mailer); err != nil {
			s.logger.Error("failed to send email", "kind", kind, "account_id", accountID, "error", err)
		}
	})
}

func payloadFor(account *domain.Account) domain.TokenPayload {
	return domain.TokenPayload{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	}
}
