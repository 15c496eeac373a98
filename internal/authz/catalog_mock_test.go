package authz

import (
	"context"
	"sync"

	"github.com/aulahq/aula/internal/shared"
)

// mockCatalog is an in-memory Catalog with the same atomicity contract as
// the PostgreSQL implementation: ReplaceRolesForUser swaps the assignment
// slice under a lock, so readers see the old or the new set, never a mix.
type mockCatalog struct {
	mu          sync.RWMutex
	roles       map[int64]Role
	assignments map[int64][]int64

	levelError   error
	replaceError error
	rolesError   error

	replaceHook func()
}

func newMockCatalog(roles ...Role) *mockCatalog {
	catalog := &mockCatalog{
		roles:       make(map[int64]Role, len(roles)),
		assignments: make(map[int64][]int64),
	}
	for _, role := range roles {
		catalog.roles[role.ID] = role
	}
	return catalog
}

func (c *mockCatalog) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	if c.rolesError != nil {
		return nil, c.rolesError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.assignments[userID]
	roles := make([]Role, 0, len(ids))
	for _, id := range ids {
		if role, ok := c.roles[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (c *mockCatalog) PrivilegeLevel(ctx context.Context, roleID int64) (int, error) {
	if c.levelError != nil {
		return 0, c.levelError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	role, ok := c.roles[roleID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return role.PrivilegeLevel, nil
}

func (c *mockCatalog) ReplaceRolesForUser(ctx context.Context, userID int64, roleIDs []int64) error {
	if c.replaceError != nil {
		return c.replaceError
	}
	c.mu.Lock()
	if c.replaceHook != nil {
		c.replaceHook()
	}
	c.assignments[userID] = append([]int64(nil), roleIDs...)
	c.mu.Unlock()
	return nil
}

func (c *mockCatalog) assigned(userID int64) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int64(nil), c.assignments[userID]...)
}
