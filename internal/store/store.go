package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid status transition")

// Store is the data access interface. All database operations go through here.
//
// Methods that take a tenant *uuid.UUID apply tenant scoping: nil means
// unrestricted (super admin), non-nil restricts every predicate to that
// tenant. Callers must pass the resolved effective tenant id, never a raw
// request parameter.
type Store interface {
	Ping(ctx context.Context) error

	// Tenants. Only super admins reach these, so no scope parameter.
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, f TenantFilter) ([]*models.Tenant, int, error)
	UpdateTenant(ctx context.Context, t *models.Tenant) error
	SetTenantStatus(ctx context.Context, id uuid.UUID, status string) error

	// Users.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, u *models.User, tenant *uuid.UUID) error
	SetUserStatus(ctx context.Context, id uuid.UUID, tenant *uuid.UUID, status string) error
	SoftDeleteUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// Projects.
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]*models.Project, int, error)
	UpdateProject(ctx context.Context, p *models.Project, tenant *uuid.UUID) error
	SoftDeleteProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	// TransitionProject validates the force-ops transition against the
	// current status, appends rec to settings.force_ops, and returns the
	// updated project. ErrInvalidTransition if the move is not allowed.
	TransitionProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID, newStatus string, rec models.ForceOpsRecord) (*models.Project, error)

	// Tasks.
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, f WorkItemFilter) ([]*models.Task, int, error)
	UpdateTask(ctx context.Context, t *models.Task, tenant *uuid.UUID) error
	SoftDeleteTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// RFIs.
	CreateRFI(ctx context.Context, r *models.RFI) error
	GetRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.RFI, error)
	ListRFIs(ctx context.Context, f WorkItemFilter) ([]*models.RFI, int, error)
	UpdateRFI(ctx context.Context, r *models.RFI, tenant *uuid.UUID) error
	SoftDeleteRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// QC plans and inspections.
	CreateQcPlan(ctx context.Context, p *models.QcPlan) error
	GetQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.QcPlan, error)
	ListQcPlans(ctx context.Context, f WorkItemFilter) ([]*models.QcPlan, int, error)
	UpdateQcPlan(ctx context.Context, p *models.QcPlan, tenant *uuid.UUID) error
	SoftDeleteQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	CreateQcInspection(ctx context.Context, i *models.QcInspection) error
	GetQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.QcInspection, error)
	ListQcInspections(ctx context.Context, f InspectionFilter) ([]*models.QcInspection, int, error)
	UpdateQcInspection(ctx context.Context, i *models.QcInspection, tenant *uuid.UUID) error
	SoftDeleteQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// Change requests.
	CreateChangeRequest(ctx context.Context, cr *models.ChangeRequest) error
	GetChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.ChangeRequest, error)
	ListChangeRequests(ctx context.Context, f WorkItemFilter) ([]*models.ChangeRequest, int, error)
	UpdateChangeRequest(ctx context.Context, cr *models.ChangeRequest, tenant *uuid.UUID) error
	SoftDeleteChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// Documents.
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Document, error)
	ListDocuments(ctx context.Context, f DocumentFilter) ([]*models.Document, int, error)
	UpdateDocument(ctx context.Context, d *models.Document, tenant *uuid.UUID) error
	SoftDeleteDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error
	RestoreDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error

	// Audit logs. Append-only.
	AppendAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]*models.AuditLog, int, error)

	// Sidebar configs.
	GetSidebarConfig(ctx context.Context, roleName string, tenantID *uuid.UUID) (*models.SidebarConfig, error)
	// ResolveSidebarConfig returns the tenant override when present,
	// otherwise the global default for the role.
	ResolveSidebarConfig(ctx context.Context, roleName string, tenantID uuid.UUID) (*models.SidebarConfig, error)
	UpsertSidebarConfig(ctx context.Context, c *models.SidebarConfig) (*models.SidebarConfig, error)
	DeleteSidebarConfig(ctx context.Context, roleName string, tenantID *uuid.UUID) error
	ListSidebarConfigs(ctx context.Context, tenant *uuid.UUID) ([]*models.SidebarConfig, error)

	// Feature flags and readiness.
	ListFeatureFlags(ctx context.Context) ([]*models.FeatureFlag, error)
	GetFeatureFlag(ctx context.Context, key string) (*models.FeatureFlag, error)
	UpsertFeatureFlag(ctx context.Context, f *models.FeatureFlag) error
	GetFlagOverrides(ctx context.Context, key string, tenantID, userID uuid.UUID) ([]*models.FlagOverride, error)
	SetFlagOverride(ctx context.Context, o *models.FlagOverride) error
	ClearFlagOverride(ctx context.Context, key string, tenantID, userID *uuid.UUID) error
	ListReadinessItems(ctx context.Context, tenantID uuid.UUID, module string) ([]*models.ReadinessItem, error)
	SetReadinessItem(ctx context.Context, item *models.ReadinessItem) error

	// API keys.
	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	// Dashboard KPIs.
	CountProjectsByStatus(ctx context.Context, tenant *uuid.UUID) (map[string]int, error)
	CountUsersByStatus(ctx context.Context, tenant *uuid.UUID) (map[string]int, error)
	CountOpenTasks(ctx context.Context, tenant *uuid.UUID) (int, error)
	CountOverdueRFIs(ctx context.Context, tenant *uuid.UUID, now time.Time) (int, error)
}

// ListParams carries the sort and pagination knobs shared by every filter.
type ListParams struct {
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// TenantFilter narrows a tenant listing.
type TenantFilter struct {
	Status string // comma-separated
	Plan   string
	Search string // name/domain substring
	ListParams
}

// UserFilter narrows a user listing.
type UserFilter struct {
	TenantID    *uuid.UUID // effective scope, nil = unrestricted
	Role        string
	Status      string // comma-separated
	Search      string // name/email substring
	CreatedFrom time.Time
	CreatedTo   time.Time
	ListParams
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	TenantID    *uuid.UUID
	Status      string // comma-separated
	Search      string // name/code substring
	CreatedFrom time.Time
	CreatedTo   time.Time
	ListParams
}

// WorkItemFilter narrows listings of tasks, RFIs, QC plans, and change
// requests, which all share the project-scoped shape.
type WorkItemFilter struct {
	TenantID   *uuid.UUID
	ProjectID  *uuid.UUID
	Status     string // comma-separated
	AssigneeID *uuid.UUID
	Search     string
	DueFrom    time.Time
	DueTo      time.Time
	ListParams
}

// InspectionFilter narrows a QC inspection listing.
type InspectionFilter struct {
	TenantID      *uuid.UUID
	ProjectID     *uuid.UUID
	PlanID        *uuid.UUID
	Status        string
	ScheduledFrom time.Time
	ScheduledTo   time.Time
	ListParams
}

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	TenantID  *uuid.UUID
	ProjectID *uuid.UUID
	Search    string // name substring
	ListParams
}

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	TenantID *uuid.UUID
	UserID   *uuid.UUID
	Action   string
	Entity   string
	From     time.Time
	To       time.Time
	ListParams
}
