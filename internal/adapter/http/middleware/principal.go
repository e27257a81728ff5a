package middleware

import (
	"context"
	"net/http"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// PrincipalContextKey is the context key for the caller's principal id.
	PrincipalContextKey ContextKey = "principal"

	// PrincipalHeader carries the opaque principal id asserted by the
	// authenticating gateway in front of this service.
	PrincipalHeader = "X-Principal-ID"
)

// RequirePrincipal extracts the caller's principal id from the gateway
// header and stores it in the request context. Requests without one
// are refused; this service never sees credentials, only the already
// verified identity.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := r.Header.Get(PrincipalHeader)
		if principal == "" {
			http.Error(w, "missing principal", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext extracts the principal id from context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(string)
	return principal, ok && principal != ""
}
