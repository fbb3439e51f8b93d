package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/tendant/simple-idm-engine/internal/httputil"
	"github.com/tendant/simple-idm-engine/pkg/auth"
	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Auth creates middleware that validates access tokens and attaches an
// httputil.AuthContext. The Authorization header is checked first, then
// the access_token cookie.
func Auth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if token, ok := httputil.GetAccessTokenFromCookie(r); ok {
					tokenString = token
				}
			}
			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			payload, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
				return
			}

			ctx := httputil.WithAuth(r.Context(), httputil.AuthContext{
				AccountID: payload.AccountID,
				Email:     payload.Email,
				Role:      payload.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not in roles. It must run after Auth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := httputil.AuthFromContext(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(roles, ac.Role) {
				httputil.Error(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
