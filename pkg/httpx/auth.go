package httpx

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// BearerToken finds the access token a client presented. It checks the
// Authorization header, then an Access-Token header, then the access_token
// query parameter. It returns "" when none is present.
func BearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		scheme, rest, ok := strings.Cut(authz, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if tok := strings.TrimSpace(rest); tok != "" {
				return tok
			}
		}
	}
	if tok := strings.TrimSpace(r.Header.Get("Access-Token")); tok != "" {
		return tok
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

// BasicAuth protects a handler with one fixed user name and password. Both
// values are compared in constant time.
func BasicAuth(realm, user, password string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
			if !ok || !userOK || !passOK || password == "" {
				slogx.FromContext(r.Context()).Warn("basic auth rejected", "user", u)
				w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": "valid admin credentials are required",
				})
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyPrincipal, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
