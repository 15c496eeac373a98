package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aulahq/aula/internal/platform/httpx"
	"github.com/aulahq/aula/internal/shared"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*Principal)
	return principal
}

// UserDirectory looks up stored users for the loader.
type UserDirectory interface {
	// FindUser returns the user record, or shared.ErrNotFound.
	FindUser(ctx context.Context, id int64) (UserRecord, error)
}

// Loader attaches the full principal to the request context for handlers
// that need more than a yes/no gate, such as ownership checks. It rejects
// only on missing identity or missing user record, never on permissions.
type Loader struct {
	Users    UserDirectory
	Catalog  Catalog
	Identity *IdentityResolver
	Logger   *slog.Logger
}

// Attach is the middleware entry point.
func (l Loader) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := l.Identity.Resolve(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "no resolvable identity")
			return
		}

		record, err := l.Users.FindUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
				return
			}
			l.fail(w, "load user", userID, err)
			return
		}

		roles, err := l.Catalog.RolesForUser(r.Context(), userID)
		if err != nil {
			l.fail(w, "load roles", userID, err)
			return
		}

		principal := &Principal{
			UserID:  record.ID,
			Name:    record.Name,
			GroupID: record.GroupID,
			Roles:   roles,
			Profile: Resolve(roles),
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func (l Loader) fail(w http.ResponseWriter, op string, userID int64, err error) {
	if l.Logger != nil {
		l.Logger.Error(op, slog.Int64("user_id", userID), slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
