package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AccessTokenParam is the query parameter checked by RequireAdminStream.
const AccessTokenParam = "access_token"

// RequireAdmin is middleware that requires "Authorization: Bearer <token>".
// An empty token disables the protected routes entirely.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return requireAdmin(token, false)
}

// RequireAdminStream is RequireAdmin that also accepts the token in the
// access_token query parameter, for EventSource clients that cannot set headers.
func RequireAdminStream(token string) func(http.Handler) http.Handler {
	return requireAdmin(token, true)
}

func requireAdmin(token string, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok := token != "" && validBearer(r.Header.Get("Authorization"), token)
			if !ok && allowQuery && token != "" {
				ok = validToken(r.URL.Query().Get(AccessTokenParam), token)
			}
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validBearer(header, token string) bool {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return validToken(strings.TrimSpace(value), token)
}

func validToken(value, token string) bool {
	if value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(value), []byte(token)) == 1
}
