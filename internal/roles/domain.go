package roles

import "time"

// Role represents a catalog role with its privilege level and permissions.
type Role struct {
	ID             int64
	Name           string
	Description    string
	PrivilegeLevel int
	Permissions    []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
