package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sitedesk_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newTenant(t *testing.T, s store.Store, domain string) *models.Tenant {
	t.Helper()
	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      domain,
		Domain:    domain,
		Plan:      "standard",
		Status:    models.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

func newProject(t *testing.T, s store.Store, tenantID uuid.UUID, name string) *models.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Project{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Code:      name,
		Status:    models.ProjectStatusActive,
		Settings:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func newUser(t *testing.T, s store.Store, tenantID uuid.UUID, email string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		Name:      email,
		Role:      models.RoleMember,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// --- Tenants ---

func TestTenant_DuplicateDomain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	newTenant(t, s, "acme.test")
	dup := &models.Tenant{
		ID:        uuid.New(),
		Name:      "Acme again",
		Domain:    "acme.test",
		Plan:      "standard",
		Status:    models.TenantStatusActive,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.CreateTenant(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Tenant scoping ---

func TestUser_TenantScoping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenantA := newTenant(t, s, "a.test")
	tenantB := newTenant(t, s, "b.test")
	userA := newUser(t, s, tenantA.ID, "alice@a.test")
	userB := newUser(t, s, tenantB.ID, "bob@b.test")

	// Scoped to A, B's user is invisible.
	_, err := s.GetUser(ctx, userB.ID, &tenantA.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetUser(ctx, userA.ID, &tenantA.ID)
	require.NoError(t, err)
	assert.Equal(t, userA.Email, got.Email)

	// Unrestricted scope sees both.
	_, err = s.GetUser(ctx, userB.ID, nil)
	require.NoError(t, err)

	// Listing scoped to A never includes B's rows.
	users, total, err := s.ListUsers(ctx, store.UserFilter{TenantID: &tenantA.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, userA.ID, users[0].ID)
}

func TestUser_DuplicateEmailPerTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenantA := newTenant(t, s, "a.test")
	tenantB := newTenant(t, s, "b.test")
	newUser(t, s, tenantA.ID, "shared@example.test")

	// Same email in another tenant is fine.
	newUser(t, s, tenantB.ID, "shared@example.test")

	// Same email in the same tenant is not.
	dup := &models.User{
		ID:        uuid.New(),
		TenantID:  tenantA.ID,
		Email:     "shared@example.test",
		Name:      "dup",
		Role:      models.RoleMember,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestUser_SoftDeleteAndRestore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	user := newUser(t, s, tenant.ID, "alice@a.test")

	require.NoError(t, s.SoftDeleteUser(ctx, user.ID, &tenant.ID))
	_, err := s.GetUser(ctx, user.ID, &tenant.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting an already-deleted row is a not-found.
	err = s.SoftDeleteUser(ctx, user.ID, &tenant.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.RestoreUser(ctx, user.ID, &tenant.ID))
	got, err := s.GetUser(ctx, user.ID, &tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

// --- Pagination and sorting ---

func TestProject_PaginationStable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	for i := 0; i < 25; i++ {
		newProject(t, s, tenant.ID, fmt.Sprintf("p-%02d", i))
	}

	seen := map[uuid.UUID]bool{}
	var total int
	for page := 1; page <= 3; page++ {
		projects, tot, err := s.ListProjects(ctx, store.ProjectFilter{
			TenantID:   &tenant.ID,
			ListParams: store.ListParams{Page: page, PerPage: 10, SortBy: "name", SortDir: "asc"},
		})
		require.NoError(t, err)
		total = tot
		for _, p := range projects {
			assert.False(t, seen[p.ID], "project %s repeated across pages", p.Name)
			seen[p.ID] = true
		}
	}

	assert.Equal(t, 25, total)
	assert.Len(t, seen, 25) // union of pages covers everything

	// A page past the end is empty but still reports the true total.
	projects, tot, err := s.ListProjects(ctx, store.ProjectFilter{
		TenantID:   &tenant.ID,
		ListParams: store.ListParams{Page: 99, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Equal(t, 25, tot)
}

func TestProject_UnknownSortFallsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	newProject(t, s, tenant.ID, "one")
	newProject(t, s, tenant.ID, "two")

	// Injection-shaped sort input must not error, just fall back.
	projects, _, err := s.ListProjects(ctx, store.ProjectFilter{
		TenantID:   &tenant.ID,
		ListParams: store.ListParams{SortBy: "name; DROP TABLE projects", SortDir: "asc"},
	})
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestProject_SearchAndStatusFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	bridge := newProject(t, s, tenant.ID, "Harbor Bridge")
	newProject(t, s, tenant.ID, "Airport Terminal")

	projects, total, err := s.ListProjects(ctx, store.ProjectFilter{
		TenantID: &tenant.ID,
		Search:   "bridge",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, projects, 1)
	assert.Equal(t, bridge.ID, projects[0].ID)

	// Comma-separated status values form an IN-list.
	_, total, err = s.ListProjects(ctx, store.ProjectFilter{
		TenantID: &tenant.ID,
		Status:   "active,frozen",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

// --- Force-ops ---

func TestProject_ForceOpsTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	project := newProject(t, s, tenant.ID, "site")
	actorID := uuid.New()

	rec := func(action string) models.ForceOpsRecord {
		return models.ForceOpsRecord{Action: action, ActorID: actorID, Reason: "test", At: time.Now().UTC()}
	}

	// active -> frozen -> active -> suspended -> archived
	p, err := s.TransitionProject(ctx, project.ID, &tenant.ID, models.ProjectStatusFrozen, rec("freeze"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusFrozen, p.Status)

	p, err = s.TransitionProject(ctx, project.ID, &tenant.ID, models.ProjectStatusActive, rec("reactivate"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, p.Status)

	p, err = s.TransitionProject(ctx, project.ID, &tenant.ID, models.ProjectStatusSuspended, rec("suspend"))
	require.NoError(t, err)

	p, err = s.TransitionProject(ctx, project.ID, &tenant.ID, models.ProjectStatusArchived, rec("archive"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, p.Status)

	// Archived is terminal.
	_, err = s.TransitionProject(ctx, project.ID, &tenant.ID, models.ProjectStatusActive, rec("reactivate"))
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// The full action history is retained under settings.force_ops.
	history, ok := p.Settings["force_ops"].([]any)
	require.True(t, ok, "expected force_ops history in settings, got %T", p.Settings["force_ops"])
	assert.Len(t, history, 4)
}

func TestProject_ForceOpsWrongTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenantA := newTenant(t, s, "a.test")
	tenantB := newTenant(t, s, "b.test")
	project := newProject(t, s, tenantA.ID, "site")

	rec := models.ForceOpsRecord{Action: "freeze", ActorID: uuid.New(), Reason: "x", At: time.Now().UTC()}
	_, err := s.TransitionProject(ctx, project.ID, &tenantB.ID, models.ProjectStatusFrozen, rec)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The project is untouched.
	got, err := s.GetProject(ctx, project.ID, &tenantA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, got.Status)
}

// --- Sidebar configs ---

func TestSidebar_ResolveOverrideChain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	updater := uuid.New()

	global := &models.SidebarConfig{
		ID:        uuid.New(),
		RoleName:  "org_admin",
		Config:    map[string]any{"items": []any{"dashboard", "projects"}},
		UpdatedBy: updater,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.UpsertSidebarConfig(ctx, global)
	require.NoError(t, err)

	// With no tenant row, the tenant resolves to the global default.
	resolved, err := s.ResolveSidebarConfig(ctx, "org_admin", tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, resolved.TenantID)

	override := &models.SidebarConfig{
		ID:        uuid.New(),
		RoleName:  "org_admin",
		TenantID:  &tenant.ID,
		Config:    map[string]any{"items": []any{"dashboard"}},
		UpdatedBy: updater,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.UpsertSidebarConfig(ctx, override)
	require.NoError(t, err)

	resolved, err = s.ResolveSidebarConfig(ctx, "org_admin", tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.TenantID)
	assert.Equal(t, tenant.ID, *resolved.TenantID)

	// Upserting the same role+tenant bumps the version.
	override.Config = map[string]any{"items": []any{"dashboard", "tasks"}}
	saved, err := s.UpsertSidebarConfig(ctx, override)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	// Reset drops the override; resolution falls back to global.
	require.NoError(t, s.DeleteSidebarConfig(ctx, "org_admin", &tenant.ID))
	resolved, err = s.ResolveSidebarConfig(ctx, "org_admin", tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, resolved.TenantID)
}

// --- Feature flags ---

func TestFlags_OverridePersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	user := newUser(t, s, tenant.ID, "alice@a.test")

	flag := &models.FeatureFlag{
		Key:            "new_dashboard",
		Description:    "redesigned dashboard",
		DefaultEnabled: false,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.UpsertFeatureFlag(ctx, flag))

	require.NoError(t, s.SetFlagOverride(ctx, &models.FlagOverride{
		ID:      uuid.New(),
		FlagKey: "new_dashboard",
		TenantID: &tenant.ID,
		Enabled: true,
	}))
	require.NoError(t, s.SetFlagOverride(ctx, &models.FlagOverride{
		ID:      uuid.New(),
		FlagKey: "new_dashboard",
		UserID:  &user.ID,
		Enabled: false,
	}))

	overrides, err := s.GetFlagOverrides(ctx, "new_dashboard", tenant.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, overrides, 2)

	// Setting the same target again replaces, not duplicates.
	require.NoError(t, s.SetFlagOverride(ctx, &models.FlagOverride{
		ID:      uuid.New(),
		FlagKey: "new_dashboard",
		TenantID: &tenant.ID,
		Enabled: false,
	}))
	overrides, err = s.GetFlagOverrides(ctx, "new_dashboard", tenant.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, overrides, 2)

	require.NoError(t, s.ClearFlagOverride(ctx, "new_dashboard", &tenant.ID, nil))
	overrides, err = s.GetFlagOverrides(ctx, "new_dashboard", tenant.ID, user.ID)
	require.NoError(t, err)
	assert.Len(t, overrides, 1)
}

// --- KPIs ---

func TestKPICounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	project := newProject(t, s, tenant.ID, "site")
	creator := newUser(t, s, tenant.ID, "alice@a.test")

	past := time.Now().UTC().Add(-24 * time.Hour)
	future := time.Now().UTC().Add(72 * time.Hour)

	mkTask := func(status string) {
		now := time.Now().UTC()
		require.NoError(t, s.CreateTask(ctx, &models.Task{
			ID: uuid.New(), ProjectID: project.ID, TenantID: tenant.ID,
			Title: "t", Status: status, Priority: "medium", CreatorID: creator.ID,
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	mkTask(models.TaskStatusOpen)
	mkTask(models.TaskStatusInProgress)
	mkTask(models.TaskStatusCompleted)

	mkRFI := func(status string, due *time.Time) {
		now := time.Now().UTC()
		require.NoError(t, s.CreateRFI(ctx, &models.RFI{
			ID: uuid.New(), ProjectID: project.ID, TenantID: tenant.ID,
			Subject: "r", Status: status, CreatorID: creator.ID, DueDate: due,
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	mkRFI(models.RFIStatusOpen, &past)   // overdue
	mkRFI(models.RFIStatusOpen, &future) // not overdue
	mkRFI(models.RFIStatusClosed, &past) // closed, never overdue

	open, err := s.CountOpenTasks(ctx, &tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	overdue, err := s.CountOverdueRFIs(ctx, &tenant.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, overdue)

	byStatus, err := s.CountProjectsByStatus(ctx, &tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, byStatus[models.ProjectStatusActive])
}

// --- Audit ---

func TestAudit_AppendAndFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	tenant := newTenant(t, s, "a.test")
	user := newUser(t, s, tenant.ID, "alice@a.test")
	entityID := uuid.New()

	require.NoError(t, s.AppendAuditLog(ctx, &models.AuditLog{
		ID: uuid.New(), TenantID: &tenant.ID, UserID: user.ID,
		Action: "project.freeze", Entity: "project", EntityID: &entityID,
		IP: "10.0.0.1", Details: map[string]any{"reason": "overdue"},
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.AppendAuditLog(ctx, &models.AuditLog{
		ID: uuid.New(), TenantID: &tenant.ID, UserID: user.ID,
		Action: "user.create", Entity: "user",
		IP: "10.0.0.1", CreatedAt: time.Now().UTC(),
	}))

	logs, total, err := s.ListAuditLogs(ctx, store.AuditFilter{
		TenantID: &tenant.ID,
		Action:   "project.freeze",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "overdue", logs[0].Details["reason"])
}
