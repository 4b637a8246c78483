package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/response"
)

// RequireSystemAdmin returns middleware that rejects identities other than the
// system administrator with 403.
func RequireSystemAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			if !identity.IsSystemAdmin() {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "System administrator access required", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenantAdmin returns middleware that only admits identities bound to
// a tenant. The system administrator carries no tenant and is rejected.
func RequireTenantAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			if _, ok := TenantID(r.Context()); !ok {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant administrator access required", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TenantID returns the tenant of the authenticated identity, if any.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	identity := GetIdentity(ctx)
	if identity == nil || identity.IsSystemAdmin() || identity.TenantID == nil {
		return uuid.Nil, false
	}
	return *identity.TenantID, true
}
