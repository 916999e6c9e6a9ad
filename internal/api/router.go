// Package api assembles the HTTP surface: middleware stack, route tree,
// and the wiring between handlers and their dependencies.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sitedeskhq/sitedesk/internal/api/handler"
	mw "github.com/sitedeskhq/sitedesk/internal/api/middleware"
)

// Scopes gating route groups. Every admin route requires ScopeAdmin; the
// heavier or riskier groups stack an additional scope on top.
const (
	ScopeAdmin    = "admin"
	ScopeForceOps = "projects.force_ops"
	ScopeExports  = "exports"
	ScopeImports  = "imports"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	Health         http.HandlerFunc
	Tenants        *handler.Tenants
	Users          *handler.Users
	Projects       *handler.Projects
	Tasks          *handler.Tasks
	RFIs           *handler.RFIs
	QC             *handler.QC
	ChangeRequests *handler.ChangeRequests
	Documents      *handler.Documents
	Audit          *handler.Audit
	Sidebar        *handler.Sidebar
	Flags          *handler.Flags
	Dashboard      *handler.Dashboard
	Keys           *handler.Keys
	Transfer       *handler.Transfer
}

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.Metrics)

	// Public endpoints
	r.Get("/api/v1/health", deps.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)
		r.Use(deps.Auth.RequireScope(ScopeAdmin))

		// Platform-level tenant management
		r.Route("/tenants", func(r chi.Router) {
			r.Use(deps.Auth.RequireSuperAdmin)

			r.Get("/", deps.Tenants.List)
			r.Post("/", deps.Tenants.Create)
			r.Get("/{tenantID}", deps.Tenants.Get)
			r.Patch("/{tenantID}", deps.Tenants.Update)
			r.Post("/{tenantID}/disable", deps.Tenants.Disable)
			r.Post("/{tenantID}/enable", deps.Tenants.Enable)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", deps.Users.List)
			r.Post("/", deps.Users.Create)
			r.Post("/bulk", deps.Users.Bulk)
			r.With(deps.Auth.RequireScope(ScopeExports), deps.RateLimit.LimitExport("users")).
				Get("/export", deps.Transfer.ExportUsers)
			r.With(deps.Auth.RequireScope(ScopeImports)).
				Post("/import", deps.Transfer.ImportUsers)
			r.Get("/{userID}", deps.Users.Get)
			r.Patch("/{userID}", deps.Users.Update)
			r.Delete("/{userID}", deps.Users.Delete)
			r.Post("/{userID}/restore", deps.Users.Restore)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", deps.Projects.List)
			r.Post("/", deps.Projects.Create)
			r.With(deps.Auth.RequireScope(ScopeExports), deps.RateLimit.LimitExport("projects")).
				Get("/export", deps.Transfer.ExportProjects)
			r.Get("/{projectID}", deps.Projects.Get)
			r.Patch("/{projectID}", deps.Projects.Update)
			r.Delete("/{projectID}", deps.Projects.Delete)
			r.Post("/{projectID}/restore", deps.Projects.Restore)

			// Force-ops state machine
			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireScope(ScopeForceOps))

				r.Post("/{projectID}/freeze", deps.Projects.Freeze)
				r.Post("/{projectID}/archive", deps.Projects.Archive)
				r.Post("/{projectID}/suspend", deps.Projects.Suspend)
				r.Post("/{projectID}/reactivate", deps.Projects.Reactivate)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", deps.Tasks.List)
			r.Post("/", deps.Tasks.Create)
			r.With(deps.Auth.RequireScope(ScopeExports), deps.RateLimit.LimitExport("tasks")).
				Get("/export", deps.Transfer.ExportTasks)
			r.With(deps.Auth.RequireScope(ScopeImports)).
				Post("/import", deps.Transfer.ImportTasks)
			r.Get("/{taskID}", deps.Tasks.Get)
			r.Patch("/{taskID}", deps.Tasks.Update)
			r.Delete("/{taskID}", deps.Tasks.Delete)
			r.Post("/{taskID}/restore", deps.Tasks.Restore)
		})

		r.Route("/rfis", func(r chi.Router) {
			r.Get("/", deps.RFIs.List)
			r.Post("/", deps.RFIs.Create)
			r.Get("/{rfiID}", deps.RFIs.Get)
			r.Patch("/{rfiID}", deps.RFIs.Update)
			r.Delete("/{rfiID}", deps.RFIs.Delete)
			r.Post("/{rfiID}/restore", deps.RFIs.Restore)
		})

		r.Route("/qc", func(r chi.Router) {
			r.Get("/plans", deps.QC.ListPlans)
			r.Post("/plans", deps.QC.CreatePlan)
			r.Get("/plans/{planID}", deps.QC.GetPlan)
			r.Patch("/plans/{planID}", deps.QC.UpdatePlan)
			r.Delete("/plans/{planID}", deps.QC.DeletePlan)
			r.Post("/plans/{planID}/restore", deps.QC.RestorePlan)

			r.Get("/inspections", deps.QC.ListInspections)
			r.Post("/inspections", deps.QC.CreateInspection)
			r.Get("/inspections/{inspectionID}", deps.QC.GetInspection)
			r.Patch("/inspections/{inspectionID}", deps.QC.UpdateInspection)
			r.Delete("/inspections/{inspectionID}", deps.QC.DeleteInspection)
			r.Post("/inspections/{inspectionID}/restore", deps.QC.RestoreInspection)
		})

		r.Route("/change-requests", func(r chi.Router) {
			r.Get("/", deps.ChangeRequests.List)
			r.Post("/", deps.ChangeRequests.Create)
			r.Get("/{changeRequestID}", deps.ChangeRequests.Get)
			r.Patch("/{changeRequestID}", deps.ChangeRequests.Update)
			r.Delete("/{changeRequestID}", deps.ChangeRequests.Delete)
			r.Post("/{changeRequestID}/restore", deps.ChangeRequests.Restore)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", deps.Documents.List)
			r.Post("/", deps.Documents.Create)
			r.Get("/{documentID}", deps.Documents.Get)
			r.Patch("/{documentID}", deps.Documents.Update)
			r.Delete("/{documentID}", deps.Documents.Delete)
			r.Post("/{documentID}/restore", deps.Documents.Restore)
		})

		r.Get("/audit-logs", deps.Audit.List)

		r.Route("/sidebar-configs", func(r chi.Router) {
			r.Get("/", deps.Sidebar.List)
			r.Get("/{roleName}", deps.Sidebar.Get)
			r.Put("/{roleName}", deps.Sidebar.Put)
			r.Get("/{roleName}/resolve", deps.Sidebar.Resolve)
			r.Post("/{roleName}/clone", deps.Sidebar.Clone)
			r.Post("/{roleName}/reset", deps.Sidebar.Reset)
			r.Get("/{roleName}/export", deps.Sidebar.Export)
			r.Post("/{roleName}/import", deps.Sidebar.Import)
		})

		r.Route("/flags", func(r chi.Router) {
			r.Get("/", deps.Flags.List)
			r.Get("/{flagKey}", deps.Flags.Resolve)
			r.Put("/{flagKey}/override", deps.Flags.SetOverride)
			r.With(deps.Auth.RequireSuperAdmin).Put("/{flagKey}", deps.Flags.UpsertFlag)
		})

		r.Route("/modules", func(r chi.Router) {
			r.Get("/readiness", deps.Flags.Readiness)
			r.Put("/readiness/{module}/{item}", deps.Flags.SetReadinessItem)
		})

		r.Get("/dashboard/kpis", deps.Dashboard.KPIs)

		r.Route("/keys", func(r chi.Router) {
			r.Post("/", deps.Keys.Create)
			r.Get("/", deps.Keys.List)
			r.Delete("/{keyID}", deps.Keys.Revoke)
		})
	})

	return r
}
