package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/pkg/apierror"
)

// Context keys for the resolved session.
const (
	IdentityKey     contextKey = "identity"
	SessionTokenKey contextKey = "session_token"
)

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Sessions *service.SessionService
}

// NewSessionMiddleware resolves the caller's session token into an identity
// and attaches both to the request context. Requests without a valid session
// pass through anonymously; handlers that need an identity check for it.
// NO GLOBAL STATE - the session service is passed via closure.
func NewSessionMiddleware(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" || cfg.Sessions == nil {
				next.ServeHTTP(w, r)
				return
			}

			data, err := cfg.Sessions.Validate(r.Context(), token)
			if err != nil {
				// Expired or bogus token: treat as anonymous rather than
				// failing the request.
				next.ServeHTTP(w, r)
				return
			}

			// Sliding expiry: any authenticated request pushes the session's
			// expiry out by a full TTL. A failed refresh only means the
			// session expires on its original schedule.
			if err := cfg.Sessions.Refresh(r.Context(), token); err != nil {
				log.Printf("[SessionMiddleware] Refresh failed for session: %v", err)
			}

			ctx := context.WithValue(r.Context(), IdentityKey, &data.Identity)
			ctx = context.WithValue(ctx, SessionTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken extracts the session token from X-Session-Token or a Bearer
// Authorization header.
func sessionToken(r *http.Request) string {
	if token := r.Header.Get("X-Session-Token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// IdentityFrom retrieves the resolved identity from context, if any.
func IdentityFrom(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*model.Identity)
	return identity, ok
}

// SessionTokenFrom retrieves the session token from context.
func SessionTokenFrom(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// NewAdminMiddleware guards the privileged routes: the session's admin gate
// must be at the Dashboard stage. Everything else gets 403, with 401 for
// requests that have no session at all.
func NewAdminMiddleware(gate *service.AdminGateService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFrom(r.Context())
			if token == "" {
				writeError(w, apierror.Unauthorized("session required"))
				return
			}
			if gate == nil || !gate.IsDashboard(r.Context(), token) {
				writeError(w, apierror.Forbidden("admin dashboard not unlocked"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
