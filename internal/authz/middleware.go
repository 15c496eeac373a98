package authz

import (
	"log/slog"
	"net/http"

	"github.com/aulahq/aula/internal/observability"
	"github.com/aulahq/aula/internal/platform/httpx"
)

// Middleware wires authorization gates for HTTP handlers. Every gate
// resolves the actor's permissions fresh from the catalog so that a decision
// always reflects the latest role assignments.
type Middleware struct {
	Catalog  Catalog
	Identity *IdentityResolver
	Registry *Registry
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Require gates the wrapped handler behind a single permission. The
// permission name is checked against the registry when the route is wired.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	m.Registry.MustKnow(permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := m.resolveProfile(w, r, permission)
			if !ok {
				return
			}
			if !profile.Has(permission) {
				m.deny(w, permission, "deny")
				return
			}
			m.observe(permission, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny gates the wrapped handler behind at least one of the given
// permissions.
func (m Middleware) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	m.Registry.MustKnow(permissions...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(permissions) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			profile, ok := m.resolveProfile(w, r, permissions[0])
			if !ok {
				return
			}
			for _, permission := range permissions {
				if profile.Has(permission) {
					m.observe(permission, "allow")
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, permissions[0], "deny")
		})
	}
}

// resolveProfile resolves the requesting identity to a fresh permission
// profile, writing the failure response itself when that is not possible.
// Any catalog failure denies the request: the gate never fails open.
func (m Middleware) resolveProfile(w http.ResponseWriter, r *http.Request, permission string) (Profile, bool) {
	userID, ok := m.Identity.Resolve(r)
	if !ok {
		m.observe(permission, "unauthenticated")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "no resolvable identity")
		return Profile{}, false
	}
	roles, err := m.Catalog.RolesForUser(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("load roles for gate", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		m.observe(permission, "error")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return Profile{}, false
	}
	profile := Resolve(roles)
	if m.Logger != nil {
		m.Logger.Debug("resolved permission profile",
			slog.Int64("user_id", userID),
			slog.String("effective_role", profile.Role),
			slog.Int("permissions", len(profile.Permissions)))
	}
	return profile, true
}

func (m Middleware) deny(w http.ResponseWriter, permission, outcome string) {
	m.observe(permission, outcome)
	httpx.Problem(w, http.StatusForbidden, "Forbidden", (&PermissionDeniedError{Permission: permission}).Error())
}

func (m Middleware) observe(permission, outcome string) {
	if m.Metrics != nil {
		m.Metrics.ObserveAuthzDecision(permission, outcome)
	}
}
