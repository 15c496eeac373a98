package journal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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
	entries []Entry
	nextID  int64
}

func (s *stubRepo) ListAll(ctx context.Context) ([]Entry, error) {
	return append([]Entry(nil), s.entries...), nil
}

func (s *stubRepo) ListByAuthor(ctx context.Context, authorID int64) ([]Entry, error) {
	var out []Entry
	for _, entry := range s.entries {
		if entry.AuthorID == authorID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubRepo) GetEntry(ctx context.Context, id int64) (Entry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, shared.ErrNotFound
}

func (s *stubRepo) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	s.nextID++
	entry.ID = s.nextID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	s.entries = append(s.entries, entry)
	return entry, nil
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

type directory struct{}

func (directory) FindUser(ctx context.Context, id int64) (authz.UserRecord, error) {
	return authz.UserRecord{ID: id, GroupID: 3}, nil
}

func journalRouter(t *testing.T, repo *stubRepo, actorID int64, roles map[int64][]authz.Role) http.Handler {
	t.Helper()
	registry, err := authz.NewRegistry(shared.CoreScopes(), shared.JournalScopes(), shared.ClassroomScopes())
	require.NoError(t, err)

	catalog := userCatalog{roles: roles}
	identity := authz.NewIdentityResolver(fixedIdentity{id: actorID})
	gate := authz.Middleware{Catalog: catalog, Identity: identity, Registry: registry}
	loader := authz.Loader{Users: directory{}, Catalog: catalog, Identity: identity}
	handler := NewHandler(nil, NewService(repo), loader, gate)

	r := chi.NewRouter()
	r.Route("/journal", handler.MountRoutes)
	return r
}

var (
	studentRole = authz.Role{ID: 1, Name: "Student", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalView, shared.PermJournalSubmit}}
	teacherRole = authz.Role{ID: 2, Name: "Professor", PrivilegeLevel: 100, Permissions: []string{shared.PermJournalView, shared.PermJournalViewAll}}
)

func seededRepo() *stubRepo {
	return &stubRepo{
		nextID: 2,
		entries: []Entry{
			{ID: 1, AuthorID: 7, Title: "Week 1", Body: "notes"},
			{ID: 2, AuthorID: 8, Title: "Week 1", Body: "other notes"},
		},
	}
}

func TestListEntriesOwnOnly(t *testing.T) {
	router := journalRouter(t, seededRepo(), 7, map[int64][]authz.Role{7: {studentRole}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"author_id":7`)
	assert.NotContains(t, res.Body.String(), `"author_id":8`)
}

func TestListEntriesViewAll(t *testing.T) {
	router := journalRouter(t, seededRepo(), 9, map[int64][]authz.Role{9: {teacherRole}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"author_id":7`)
	assert.Contains(t, res.Body.String(), `"author_id":8`)
}

func TestShowEntryOwner(t *testing.T) {
	router := journalRouter(t, seededRepo(), 7, map[int64][]authz.Role{7: {studentRole}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/1", nil))

	assert.Equal(t, http.StatusOK, res.Code)
}

func TestShowEntryOfAnotherAuthorForbidden(t *testing.T) {
	router := journalRouter(t, seededRepo(), 7, map[int64][]authz.Role{7: {studentRole}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/2", nil))

	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestShowEntryViewAllSeesEverything(t *testing.T) {
	router := journalRouter(t, seededRepo(), 9, map[int64][]authz.Role{9: {teacherRole}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/2", nil))

	assert.Equal(t, http.StatusOK, res.Code)
}

func TestSubmitEntry(t *testing.T) {
	repo := seededRepo()
	router := journalRouter(t, repo, 7, map[int64][]authz.Role{7: {studentRole}})

	req := httptest.NewRequest(http.MethodPost, "/journal/", strings.NewReader(`{"title":"Week 2","body":"more notes"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	last := repo.entries[len(repo.entries)-1]
	assert.Equal(t, int64(7), last.AuthorID)
	assert.Equal(t, int64(3), last.GroupID, "group id comes from the loaded principal")
}

func TestSubmitEntryRequiresPermission(t *testing.T) {
	viewer := authz.Role{ID: 3, Name: "Observer", PrivilegeLevel: 1, Permissions: []string{shared.PermJournalView}}
	router := journalRouter(t, seededRepo(), 7, map[int64][]authz.Role{7: {viewer}})

	req := httptest.NewRequest(http.MethodPost, "/journal/", strings.NewReader(`{"title":"x","body":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestJournalRequiresIdentity(t *testing.T) {
	router := journalRouter(t, seededRepo(), 0, nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/journal/", nil))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
