package authz

import "strings"

// Resolve computes the effective permission profile for the given assigned
// roles. Only roles at the lowest privilege level present contribute: a user
// granted a low-trust role must not retain permissions from a conflicting
// higher-level grant. Roles at the lowest level stack additively.
//
// The function is pure and total: an empty input resolves to the Guest
// profile, and no input produces an error.
func Resolve(roles []Role) Profile {
	if len(roles) == 0 {
		return Profile{Role: GuestRole, Permissions: []string{}}
	}

	lowest := roles[0].PrivilegeLevel
	for _, role := range roles[1:] {
		if role.PrivilegeLevel < lowest {
			lowest = role.PrivilegeLevel
		}
	}

	var names []string
	seen := make(map[string]struct{})
	permissions := []string{}
	for _, role := range roles {
		if role.PrivilegeLevel != lowest {
			continue
		}
		names = append(names, role.Name)
		for _, perm := range role.Permissions {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			permissions = append(permissions, perm)
		}
	}

	effective := strings.Join(names, ", ")
	if effective == "" {
		effective = GuestRole
	}
	return Profile{Role: effective, Permissions: permissions}
}
