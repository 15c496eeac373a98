package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulahq/aula/internal/shared"
)

type staticIdentity struct {
	id int64
	ok bool
}

func (s staticIdentity) UserID(*http.Request) (int64, bool) {
	return s.id, s.ok
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(shared.CoreScopes(), shared.JournalScopes(), shared.ClassroomScopes())
	require.NoError(t, err)
	return registry
}

func gateFor(t *testing.T, catalog Catalog, identity IdentityStrategy) Middleware {
	t.Helper()
	return Middleware{
		Catalog:  catalog,
		Identity: NewIdentityResolver(identity),
		Registry: testRegistry(t),
	}
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAllowsGrantedPermission(t *testing.T) {
	catalog := newMockCatalog(Role{ID: 1, Name: "Student", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalSubmit}})
	catalog.assignments[42] = []int64{1}
	gate := gateFor(t, catalog, staticIdentity{id: 42, ok: true})

	called := false
	rr := httptest.NewRecorder()
	gate.Require(shared.PermJournalSubmit)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRequireDeniesMissingPermission(t *testing.T) {
	catalog := newMockCatalog(Role{ID: 1, Name: "Student", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalSubmit}})
	catalog.assignments[42] = []int64{1}
	gate := gateFor(t, catalog, staticIdentity{id: 42, ok: true})

	called := false
	rr := httptest.NewRecorder()
	gate.Require(shared.PermRolesAssign)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), shared.PermRolesAssign)
}

func TestRequireUnauthenticated(t *testing.T) {
	gate := gateFor(t, newMockCatalog(), staticIdentity{})

	called := false
	rr := httptest.NewRecorder()
	gate.Require(shared.PermUsersView)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// A catalog failure must deny, never allow.
func TestRequireFailsClosedOnStoreError(t *testing.T) {
	catalog := newMockCatalog()
	catalog.rolesError = errors.New("connection refused")
	gate := gateFor(t, catalog, staticIdentity{id: 42, ok: true})

	called := false
	rr := httptest.NewRecorder()
	gate.Require(shared.PermUsersView)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRequirePanicsOnUnregisteredPermission(t *testing.T) {
	gate := gateFor(t, newMockCatalog(), staticIdentity{})

	assert.Panics(t, func() {
		gate.Require("users.viw")
	})
}

// Guests (no role assignments) resolve to an empty permission set and are
// denied.
func TestRequireDeniesGuest(t *testing.T) {
	gate := gateFor(t, newMockCatalog(), staticIdentity{id: 42, ok: true})

	called := false
	rr := httptest.NewRecorder()
	gate.Require(shared.PermJournalView)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAnyAllowsEitherPermission(t *testing.T) {
	catalog := newMockCatalog(Role{ID: 1, Name: "Group Leader", PrivilegeLevel: 1, Permissions: []string{shared.PermGroupsView}})
	catalog.assignments[42] = []int64{1}
	gate := gateFor(t, catalog, staticIdentity{id: 42, ok: true})

	called := false
	rr := httptest.NewRecorder()
	gate.RequireAny(shared.PermGroupsManage, shared.PermGroupsView)(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
}

func TestLoaderAttachesPrincipal(t *testing.T) {
	catalog := newMockCatalog(Role{ID: 1, Name: "Student", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalSubmit}})
	catalog.assignments[42] = []int64{1}
	loader := Loader{
		Users:    staticDirectory{record: UserRecord{ID: 42, Name: "Ayu", GroupID: 3}},
		Catalog:  catalog,
		Identity: NewIdentityResolver(staticIdentity{id: 42, ok: true}),
	}

	var got *Principal
	rr := httptest.NewRecorder()
	loader.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, int64(3), got.GroupID)
	assert.Equal(t, "Student", got.Profile.Role)
	require.Len(t, got.Roles, 1)
}

func TestLoaderRejectsUnknownUser(t *testing.T) {
	loader := Loader{
		Users:    staticDirectory{err: shared.ErrNotFound},
		Catalog:  newMockCatalog(),
		Identity: NewIdentityResolver(staticIdentity{id: 42, ok: true}),
	}

	rr := httptest.NewRecorder()
	loader.Attach(okHandler(new(bool))).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoaderRejectsAnonymous(t *testing.T) {
	loader := Loader{
		Users:    staticDirectory{},
		Catalog:  newMockCatalog(),
		Identity: NewIdentityResolver(staticIdentity{}),
	}

	rr := httptest.NewRecorder()
	loader.Attach(okHandler(new(bool))).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// The loader never rejects on permissions: a guest with a user record passes
// through with an empty profile.
func TestLoaderPassesGuestThrough(t *testing.T) {
	loader := Loader{
		Users:    staticDirectory{record: UserRecord{ID: 42}},
		Catalog:  newMockCatalog(),
		Identity: NewIdentityResolver(staticIdentity{id: 42, ok: true}),
	}

	var got *Principal
	rr := httptest.NewRecorder()
	loader.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, GuestRole, got.Profile.Role)
	assert.Empty(t, got.Profile.Permissions)
}

type staticDirectory struct {
	record UserRecord
	err    error
}

func (d staticDirectory) FindUser(ctx context.Context, id int64) (UserRecord, error) {
	if d.err != nil {
		return UserRecord{}, d.err
	}
	return d.record, nil
}
