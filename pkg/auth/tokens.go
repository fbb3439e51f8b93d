package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

const (
	// Default token lifetimes
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeBearer = "Bearer"
)

// Token uses carried in the token_use claim.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// TokenConfig holds token signing configuration.
type TokenConfig struct {
	Secret          []byte
	RefreshSecret   []byte // optional; Secret is used when empty
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Claims represents the claims in access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
}

// TokenIssuer mints and verifies signed session tokens.
type TokenIssuer struct {
	config TokenConfig
}

// NewTokenIssuer creates a token issuer. A missing signing secret is a
// configuration error and the caller must not start serving.
func NewTokenIssuer(config TokenConfig) (*TokenIssuer, error) {
	if len(config.Secret) == 0 {
		return nil, &domain.ConfigurationError{Setting: "JWT_SECRET", Message: "signing secret is required"}
	}
	if len(config.RefreshSecret) == 0 {
		config.RefreshSecret = config.Secret
	}
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL <= 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenIssuer{config: config}, nil
}

// AccessTokenTTL returns the access token TTL.
func (i *TokenIssuer) AccessTokenTTL() time.Duration {
	return i.config.AccessTokenTTL
}

// RefreshTokenTTL returns the refresh token TTL.
func (i *TokenIssuer) RefreshTokenTTL() time.Duration {
	return i.config.RefreshTokenTTL
}

// IssueTokenPair signs payload as an access token and a refresh token.
func (i *TokenIssuer) IssueTokenPair(payload domain.TokenPayload) (*domain.TokenPair, error) {
	now := i.config.Now()

	access, accessExpiry, err := i.sign(payload, TokenUseAccess, now)
	if err != nil {
		return nil, err
	}
	refresh, _, err := i.sign(payload, TokenUseRefresh, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(i.config.AccessTokenTTL.Seconds()),
		ExpiresAt:    accessExpiry,
	}, nil
}

// IssueAccessToken signs payload as an access token only.
func (i *TokenIssuer) IssueAccessToken(payload domain.TokenPayload) (*domain.AccessToken, error) {
	token, expiry, err := i.sign(payload, TokenUseAccess, i.config.Now())
	if err != nil {
		return nil, err
	}
	return &domain.AccessToken{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresIn: int(i.config.AccessTokenTTL.Seconds()),
		ExpiresAt: expiry,
	}, nil
}

// VerifyAccessToken validates an access token and returns its payload.
func (i *TokenIssuer) VerifyAccessToken(token string) (*domain.TokenPayload, error) {
	return i.verify(token, TokenUseAccess)
}

// VerifyRefreshToken validates a refresh token and returns its payload.
func (i *TokenIssuer) VerifyRefreshToken(token string) (*domain.TokenPayload, error) {
	return i.verify(token, TokenUseRefresh)
}

func (i *TokenIssuer) sign(payload domain.TokenPayload, use string, now time.Time) (string, time.Time, error) {
	ttl, secret := i.config.AccessTokenTTL, i.config.Secret
	if use == TokenUseRefresh {
		ttl, secret = i.config.RefreshTokenTTL, i.config.RefreshSecret
	}
	expiry := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.AccountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			Issuer:    i.config.Issuer,
			ID:        uuid.New().String(),
		},
		Email:    payload.Email,
		Role:     string(payload.Role),
		TokenUse: use,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

func (i *TokenIssuer) verify(tokenString, use string) (*domain.TokenPayload, error) {
	secret := i.config.Secret
	if use == TokenUseRefresh {
		secret = i.config.RefreshSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.config.Now),
		jwt.WithExpirationRequired(),
	}
	if i.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenUse != use {
		return nil, domain.ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return &domain.TokenPayload{
		AccountID: accountID,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
	}, nil
}
