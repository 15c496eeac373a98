package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulahq/aula/internal/authz"
	"github.com/aulahq/aula/internal/shared"
	_ "github.com/aulahq/aula/testing"
)

type stubRepo struct {
	records []Record
	last    Filters
}

func (s *stubRepo) ListRecords(ctx context.Context, filters Filters) ([]Record, shared.Pagination, error) {
	s.last = filters
	var out []Record
	for _, rec := range s.records {
		if filters.Entity != "" && rec.Entity != filters.Entity {
			continue
		}
		if filters.Action != "" && rec.Action != filters.Action {
			continue
		}
		if filters.ActorID > 0 && rec.ActorID != filters.ActorID {
			continue
		}
		out = append(out, rec)
	}
	return out, shared.NewPagination(filters.Page, filters.PerPage, len(out)), nil
}

type fixedIdentity struct {
	id int64
}

func (f fixedIdentity) UserID(*http.Request) (int64, bool) {
	return f.id, f.id > 0
}

type userCatalog struct {
	roles map[int64][]authz.Role
}

func (c userCatalog) RolesForUser(ctx context.Context, userID int64) ([]authz.Role, error) {
	return c.roles[userID], nil
}

func (c userCatalog) PrivilegeLevel(ctx context.Context, roleID int64) (int, error) {
	return 0, shared.ErrNotFound
}

func (c userCatalog) ReplaceRolesForUser(ctx context.Context, userID int64, roleIDs []int64) error {
	return nil
}

func auditRouter(t *testing.T, repo *stubRepo, actorID int64, roles map[int64][]authz.Role) http.Handler {
	t.Helper()
	registry, err := authz.NewRegistry(shared.CoreScopes(), shared.JournalScopes(), shared.ClassroomScopes())
	require.NoError(t, err)

	gate := authz.Middleware{
		Catalog:  userCatalog{roles: roles},
		Identity: authz.NewIdentityResolver(fixedIdentity{id: actorID}),
		Registry: registry,
	}
	handler := NewHandler(nil, NewService(repo), gate)

	r := chi.NewRouter()
	r.Route("/audit", handler.MountRoutes)
	return r
}

var adminRole = authz.Role{ID: 9, Name: "Administrator", PrivilegeLevel: 100, Permissions: []string{shared.PermAuditView}}

func seededRepo() *stubRepo {
	return &stubRepo{records: []Record{
		{ID: 2, ActorID: 1, Action: "roles.assign", Entity: "user", EntityID: "7", OccurredAt: time.Now()},
		{ID: 1, ActorID: 1, Action: "auth.login", Entity: "user", EntityID: "1", OccurredAt: time.Now().Add(-time.Hour)},
	}}
}

func TestTimelineRequiresPermission(t *testing.T) {
	router := auditRouter(t, seededRepo(), 7, map[int64][]authz.Role{
		7: {{ID: 1, Name: "Student", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalView}}},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTimelineListsRecords(t *testing.T) {
	router := auditRouter(t, seededRepo(), 1, map[int64][]authz.Role{1: {adminRole}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Records []struct {
			Action string `json:"action"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Records, 2)
	assert.Equal(t, "roles.assign", body.Records[0].Action)
}

func TestTimelineFiltersByAction(t *testing.T) {
	repo := seededRepo()
	router := auditRouter(t, repo, 1, map[int64][]authz.Role{1: {adminRole}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/?action=auth.login&per_page=500", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Records []struct {
			Action string `json:"action"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "auth.login", body.Records[0].Action)
	assert.Equal(t, 50, repo.last.PerPage)
}
