package authz

import (
	"fmt"
	"strings"
)

// Registry is the closed set of permission names known to the application.
// Gates are checked against it when routes are wired so that a typo in a
// permission name fails at startup instead of during a request.
type Registry struct {
	names map[string]struct{}
}

// NewRegistry builds a registry from permission scope lists. Empty and
// duplicate names are rejected.
func NewRegistry(scopes ...[]string) (*Registry, error) {
	names := make(map[string]struct{})
	for _, scope := range scopes {
		for _, name := range scope {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("authz: empty permission name in registry")
			}
			if _, ok := names[name]; ok {
				return nil, fmt.Errorf("authz: duplicate permission %q in registry", name)
			}
			names[name] = struct{}{}
		}
	}
	return &Registry{names: names}, nil
}

// Known reports whether the permission name is declared.
func (r *Registry) Known(permission string) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[permission]
	return ok
}

// MustKnow panics when the permission name is not declared. Called during
// router construction, never on the request path.
func (r *Registry) MustKnow(permissions ...string) {
	for _, permission := range permissions {
		if !r.Known(permission) {
			panic(fmt.Sprintf("authz: permission %q is not registered", permission))
		}
	}
}
