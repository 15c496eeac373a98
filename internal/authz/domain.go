// Package authz implements permission resolution and the authorization
// surface built on top of it: request gates, principal loading and the
// role-assignment rule checks.
package authz

// GuestRole is the effective role reported for users without assignments.
const GuestRole = "Guest"

// Role is a catalog role annotated with its privilege level and permissions.
type Role struct {
	ID             int64
	Name           string
	PrivilegeLevel int
	Permissions    []string
}

// Profile is the resolved view of a user's assigned roles. It is computed
// fresh on every resolution and never persisted.
type Profile struct {
	Role        string
	Permissions []string
}

// Has reports whether the profile grants the given permission.
func (p Profile) Has(permission string) bool {
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// UserRecord is the directory view of a stored user consumed by the loader.
type UserRecord struct {
	ID      int64
	Name    string
	GroupID int64
}

// Principal carries the request actor together with its resolved profile.
type Principal struct {
	UserID  int64
	Name    string
	GroupID int64
	Roles   []Role
	Profile Profile
}
