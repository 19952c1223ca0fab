package middleware

import (
	"net/http"

	"github.com/cdlite/portal-api/internal/http/response"
	"github.com/cdlite/portal-api/internal/identity"
	"github.com/cdlite/portal-api/internal/observability"
)

// RequireCapability enforces the capability floor for an API route. Guests
// get 401 so clients know to authenticate; authenticated callers below the
// floor get 403.
func RequireCapability(capability identity.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved := IdentityFromContext(r.Context())
			allowed := resolved.Can(capability)
			observability.RecordCapabilityDecision(r.Context(), string(capability), allowed)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}
			if resolved.Status != identity.StatusAuthenticated {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", map[string]string{
				"required": string(capability),
			})
		})
	}
}

// RequireRole enforces a minimum role rank directly, for routes that guard
// on rank rather than a named capability.
func RequireRole(min identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved := IdentityFromContext(r.Context())
			if resolved.Role.AtLeast(min) {
				next.ServeHTTP(w, r)
				return
			}
			if resolved.Status != identity.StatusAuthenticated {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", map[string]string{
				"required": string(min),
			})
		})
	}
}
