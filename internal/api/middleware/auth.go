package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/metrics"
)

const identityKey contextKey = "identity"

// TokenVerifier turns a bearer token back into an Identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Authenticate is middleware that extracts the bearer token from the
// Authorization header and resolves it to an Identity. Missing, malformed,
// expired, or otherwise invalid tokens return 401.
func Authenticate(verifier TokenVerifier, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" {
				collector.RecordTokenRejection("missing")
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				collector.RecordTokenRejection("malformed")
				slog.Debug("rejected authorization header", "requestId", requestID)
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must use the Bearer scheme", requestID)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				reason := "invalid"
				message := "Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired"
					message = "Token has expired"
				}
				collector.RecordTokenRejection(reason)
				slog.Debug("rejected bearer token", "reason", reason, "requestId", requestID)
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", message, requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// bearerToken parses "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
