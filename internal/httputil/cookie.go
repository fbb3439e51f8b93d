package httputil

import (
	"net/http"
	"time"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain string
	Path   string
	// RefreshPath scopes the refresh cookie to the endpoints that read it.
	RefreshPath string
	Secure      bool
	SameSite    http.SameSite
}

// DefaultCookieConfig returns cookies scoped to the site root, with the
// refresh cookie limited to /v1/auth.
func DefaultCookieConfig(secure bool) CookieConfig {
	return CookieConfig{
		Path:        "/",
		RefreshPath: "/v1/auth",
		Secure:      secure,
		SameSite:    http.SameSiteLaxMode,
	}
}

func (c CookieConfig) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (c CookieConfig) refreshPath() string {
	if c.RefreshPath == "" {
		return c.Path
	}
	return c.RefreshPath
}

// SetAuthCookies sets HttpOnly cookies for a freshly issued token pair.
func SetAuthCookies(w http.ResponseWriter, pair *domain.TokenPair, refreshTTL time.Duration, cfg CookieConfig) {
	http.SetCookie(w, cfg.cookie(accessCookieName, pair.AccessToken, cfg.Path, pair.ExpiresIn))
	http.SetCookie(w, cfg.cookie(refreshCookieName, pair.RefreshToken, cfg.refreshPath(), int(refreshTTL.Seconds())))
}

// SetAccessCookie replaces the access token cookie after a refresh.
func SetAccessCookie(w http.ResponseWriter, token *domain.AccessToken, cfg CookieConfig) {
	http.SetCookie(w, cfg.cookie(accessCookieName, token.Token, cfg.Path, token.ExpiresIn))
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, cfg.cookie(accessCookieName, "", cfg.Path, -1))
	http.SetCookie(w, cfg.cookie(refreshCookieName, "", cfg.refreshPath(), -1))
}

// GetRefreshTokenFromCookie extracts refresh token from cookie.
func GetRefreshTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// GetAccessTokenFromCookie extracts access token from cookie.
func GetAccessTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(accessCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// IsMobileClient reports whether the caller asked for tokens in the body
// (header X-Client-Type: mobile) rather than cookies.
func IsMobileClient(r *http.Request) bool {
	return r.Header.Get("X-Client-Type") == "mobile"
}
