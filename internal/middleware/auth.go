// Package middleware provides HTTP middlewares for authentication and
// request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
)

type ctxKey string

const credentialKey ctxKey = "credential"

// TokenVerifier recovers the credential carried by an access token.
type TokenVerifier interface {
	Verify(token string) (directory.Credential, error)
}

// BearerAuth verifies the Authorization bearer token on every request and
// stores the recovered credential in the request context. Requests with a
// missing, malformed, expired, or forged token get 401 and never reach
// the handler.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			parts := strings.SplitN(raw, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			cred, err := verifier.Verify(parts[1])
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), credentialKey, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFromContext extracts the authenticated credential stored by
// BearerAuth. The second return is false outside an authenticated
// request.
func CredentialFromContext(ctx context.Context) (directory.Credential, bool) {
	cred, ok := ctx.Value(credentialKey).(directory.Credential)
	return cred, ok
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
