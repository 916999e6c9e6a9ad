package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/api"
	"github.com/sitedeskhq/sitedesk/internal/api/handler"
	mw "github.com/sitedeskhq/sitedesk/internal/api/middleware"
	"github.com/sitedeskhq/sitedesk/internal/flags"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockStore embeds the Store interface so only the methods a test touches
// need implementations; anything else panics loudly.
type mockStore struct {
	store.Store

	mu sync.Mutex

	apiKeys []*models.APIKey
	users   []*models.User
	project *models.Project
	flag    *models.FeatureFlag

	lastUserFilter  store.UserFilter
	transitionCalls int
	transitionErr   error
	failStatusFor   map[uuid.UUID]bool
	auditActions    []string
	overrides       []*models.FlagOverride
	overrideClears  int
}

func (m *mockStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return m.apiKeys, nil
}

func (m *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func (m *mockStore) AppendAuditLog(_ context.Context, l *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditActions = append(m.auditActions, l.Action)
	return nil
}

func (m *mockStore) ListUsers(_ context.Context, f store.UserFilter) ([]*models.User, int, error) {
	m.mu.Lock()
	m.lastUserFilter = f
	m.mu.Unlock()
	return m.users, len(m.users), nil
}

func (m *mockStore) SetUserStatus(_ context.Context, id uuid.UUID, _ *uuid.UUID, _ string) error {
	if m.failStatusFor[id] {
		return store.ErrNotFound
	}
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id && (tenant == nil || u.TenantID == *tenant) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetFeatureFlag(_ context.Context, key string) (*models.FeatureFlag, error) {
	if m.flag != nil && m.flag.Key == key {
		return m.flag, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) SetFlagOverride(_ context.Context, o *models.FlagOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides = append(m.overrides, o)
	return nil
}

func (m *mockStore) ClearFlagOverride(_ context.Context, _ string, _, _ *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrideClears++
	return nil
}

func (m *mockStore) TransitionProject(_ context.Context, _ uuid.UUID, _ *uuid.UUID, newStatus string, _ models.ForceOpsRecord) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCalls++
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	p := *m.project
	p.Status = newStatus
	return &p, nil
}

type fakeCache struct {
	mu       sync.Mutex
	stored   map[string][]byte
	counters map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: map[string][]byte{}, counters: map[string]int64{}}
}

func (f *fakeCache) Set(_ context.Context, key string, v []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[key] = v
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.stored[key]
	return v, ok, nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, key)
	return nil
}

func (f *fakeCache) Ping(_ context.Context) error { return nil }

func (f *fakeCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]++
	return f.counters[key], nil
}

// newTestServer builds the full router around the mock store with a key
// for an actor of the given role and scopes. Returns the handler and the
// raw bearer key.
func newTestServer(t *testing.T, m *mockStore, c *fakeCache, tenantID uuid.UUID, role string, scopes []string) (http.Handler, string) {
	t.Helper()

	rawKey := "sd_" + uuid.NewString()[:13]
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.MinCost)
	require.NoError(t, err)
	m.apiKeys = append(m.apiKeys, &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    uuid.New(),
		KeyHash:   string(hash),
		KeyPrefix: rawKey[:8],
		Role:      role,
		Scopes:    scopes,
	})

	auth := mw.NewAuth(m)
	rateLimit := mw.NewRateLimit(c, 1000, 1, 60*time.Second)
	flagSvc := flags.NewService(m)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		Health:         handler.NewHealthHandler(m, c),
		Tenants:        handler.NewTenants(m),
		Users:          handler.NewUsers(m),
		Projects:       handler.NewProjects(m),
		Tasks:          handler.NewTasks(m),
		RFIs:           handler.NewRFIs(m),
		QC:             handler.NewQC(m),
		ChangeRequests: handler.NewChangeRequests(m),
		Documents:      handler.NewDocuments(m),
		Audit:          handler.NewAudit(m),
		Sidebar:        handler.NewSidebar(m),
		Flags:          handler.NewFlags(m, flagSvc),
		Dashboard:      handler.NewDashboard(m, c, time.Minute),
		Keys:           handler.NewKeys(m),
		Transfer:       handler.NewTransfer(m),
	}
	return api.NewRouter(deps), rawKey
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestMissingTokenUnauthorized(t *testing.T) {
	m := &mockStore{}
	router, _ := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestMissingAdminScopeForbidden(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleMember, []string{"projects:read"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestScopedAdminCannotEscapeTenant(t *testing.T) {
	tenantID := uuid.New()
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), tenantID, models.RoleOrgAdmin, []string{api.ScopeAdmin})

	other := uuid.New()
	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users?tenant_id="+other.String(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, m.lastUserFilter.TenantID)
	assert.Equal(t, tenantID, *m.lastUserFilter.TenantID)
}

func TestSuperAdminTenantOverride(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleSuperAdmin, []string{api.ScopeAdmin})

	other := uuid.New()
	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users?tenant_id="+other.String(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, m.lastUserFilter.TenantID)
	assert.Equal(t, other, *m.lastUserFilter.TenantID)

	// No tenant_id at all means unrestricted for super admins.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, m.lastUserFilter.TenantID)
}

func TestPerPageClampReflectedInMeta(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users?per_page=500", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Meta struct {
			PerPage int `json:"per_page"`
			Page    int `json:"page"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100, body.Meta.PerPage)
	assert.Equal(t, 1, body.Meta.Page)
}

func TestForceOpsWithoutScopeNoMutation(t *testing.T) {
	m := &mockStore{project: &models.Project{ID: uuid.New(), Status: models.ProjectStatusActive}}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodPost,
		"/api/v1/admin/projects/"+m.project.ID.String()+"/freeze", token,
		map[string]string{"reason": "payment overdue"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	assert.Zero(t, m.transitionCalls)
}

func TestForceOpsFreeze(t *testing.T) {
	m := &mockStore{project: &models.Project{ID: uuid.New(), Status: models.ProjectStatusActive}}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin,
		[]string{api.ScopeAdmin, api.ScopeForceOps})

	rec := doJSON(t, router, http.MethodPost,
		"/api/v1/admin/projects/"+m.project.ID.String()+"/freeze", token,
		map[string]string{"reason": "payment overdue"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, m.transitionCalls)

	var body struct {
		Data models.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.ProjectStatusFrozen, body.Data.Status)
	assert.Contains(t, m.auditActions, "project.freeze")
}

func TestForceOpsRequiresReason(t *testing.T) {
	m := &mockStore{project: &models.Project{ID: uuid.New(), Status: models.ProjectStatusActive}}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin,
		[]string{api.ScopeAdmin, api.ScopeForceOps})

	rec := doJSON(t, router, http.MethodPost,
		"/api/v1/admin/projects/"+m.project.ID.String()+"/archive", token,
		map[string]string{"reason": "  "})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
	assert.Zero(t, m.transitionCalls)
}

func TestForceOpsInvalidTransitionConflict(t *testing.T) {
	m := &mockStore{
		project:       &models.Project{ID: uuid.New(), Status: models.ProjectStatusArchived},
		transitionErr: fmt.Errorf("%w: archived -> frozen", store.ErrInvalidTransition),
	}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin,
		[]string{api.ScopeAdmin, api.ScopeForceOps})

	rec := doJSON(t, router, http.MethodPost,
		"/api/v1/admin/projects/"+m.project.ID.String()+"/freeze", token,
		map[string]string{"reason": "should not work"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, rec))
}

func TestBulkUsersPartialFailure(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	m := &mockStore{failStatusFor: map[uuid.UUID]bool{bad: true}}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/users/bulk", token, map[string]any{
		"action": "disable",
		"ids":    []string{good.String(), bad.String(), "garbage"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Succeeded []uuid.UUID       `json:"succeeded"`
			Failed    map[string]string `json:"failed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []uuid.UUID{good}, body.Data.Succeeded)
	assert.Len(t, body.Data.Failed, 2)
}

func TestExportRateLimited(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin,
		[]string{api.ScopeAdmin, api.ScopeExports})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users/export", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	// Limit is 1 per window in the test server.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/admin/users/export", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestExportWithoutScopeForbidden(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/users/export", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantRoutesRequireSuperAdmin(t *testing.T) {
	m := &mockStore{}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/tenants", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardServedFromCache(t *testing.T) {
	tenantID := uuid.New()
	c := newFakeCache()

	cached, err := json.Marshal(map[string]any{
		"projects_by_status": map[string]int{"active": 7},
		"users_by_status":    map[string]int{"active": 3},
		"open_tasks":         12,
		"overdue_rfis":       2,
		"generated_at":       time.Now().UTC(),
	})
	require.NoError(t, err)
	c.stored["kpi:"+tenantID.String()] = cached

	// Count methods are not implemented on the mock: a cache miss would
	// panic, proving the hit path never touches the store.
	m := &mockStore{}
	router, token := newTestServer(t, m, c, tenantID, models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/dashboard/kpis", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			OpenTasks int `json:"open_tasks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12, body.Data.OpenTasks)
}

func TestFlagOverrideForeignTenantForbidden(t *testing.T) {
	m := &mockStore{flag: &models.FeatureFlag{Key: "beta"}}
	router, token := newTestServer(t, m, newFakeCache(), uuid.New(), models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/admin/flags/beta/override", token, map[string]any{
		"tenant_id": uuid.NewString(),
		"enabled":   true,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	assert.Empty(t, m.overrides)
}

func TestFlagOverrideForeignUserNotFound(t *testing.T) {
	tenantID := uuid.New()
	foreign := &models.User{ID: uuid.New(), TenantID: uuid.New()}
	m := &mockStore{flag: &models.FeatureFlag{Key: "beta"}, users: []*models.User{foreign}}
	router, token := newTestServer(t, m, newFakeCache(), tenantID, models.RoleOrgAdmin, []string{api.ScopeAdmin})

	// Setting an override for a user outside the actor's tenant must not
	// persist anything.
	rec := doJSON(t, router, http.MethodPut, "/api/v1/admin/flags/beta/override", token, map[string]any{
		"user_id": foreign.ID.String(),
		"enabled": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, m.overrides)

	// Same for the clear path (null enabled).
	rec = doJSON(t, router, http.MethodPut, "/api/v1/admin/flags/beta/override", token, map[string]any{
		"user_id": foreign.ID.String(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, m.overrideClears)
}

func TestFlagOverrideOwnTenantUser(t *testing.T) {
	tenantID := uuid.New()
	member := &models.User{ID: uuid.New(), TenantID: tenantID}
	m := &mockStore{flag: &models.FeatureFlag{Key: "beta"}, users: []*models.User{member}}
	router, token := newTestServer(t, m, newFakeCache(), tenantID, models.RoleOrgAdmin, []string{api.ScopeAdmin})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/admin/flags/beta/override", token, map[string]any{
		"user_id": member.ID.String(),
		"enabled": true,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, m.overrides, 1)
	require.NotNil(t, m.overrides[0].UserID)
	assert.Equal(t, member.ID, *m.overrides[0].UserID)
}
