package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// Sidebar manages per-role navigation layouts. A nil tenant id on a row is
// the global default; a tenant row overrides it for that tenant only.
type Sidebar struct {
	store store.Store
}

func NewSidebar(s store.Store) *Sidebar {
	return &Sidebar{store: s}
}

// sidebarTenant returns the tenant scope for a sidebar operation: scoped
// admins always target their own tenant; super admins target the global
// row unless ?tenant_id= is set.
func sidebarTenant(r *http.Request, actor models.Actor) *uuid.UUID {
	if actor.IsSuperAdmin() {
		return queryUUID(r, "tenant_id")
	}
	t := actor.TenantID
	return &t
}

func (h *Sidebar) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	configs, err := h.store.ListSidebarConfigs(r.Context(), effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, configs)
}

// Get returns the exact row for role+tenant; Resolve returns what a user
// of that role in the actor's tenant would actually see.
func (h *Sidebar) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")
	config, err := h.store.GetSidebarConfig(r.Context(), roleName, sidebarTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, config)
}

func (h *Sidebar) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		if requested := queryUUID(r, "tenant_id"); requested != nil {
			tenantID = *requested
		}
	}

	config, err := h.store.ResolveSidebarConfig(r.Context(), roleName, tenantID)
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, config)
}

func (h *Sidebar) Put(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	var req struct {
		Config map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if len(req.Config) == 0 {
		response.ValidationFailed(w, map[string]string{"config": "config must not be empty"})
		return
	}

	config := &models.SidebarConfig{
		ID:        uuid.New(),
		RoleName:  roleName,
		TenantID:  sidebarTenant(r, actor),
		Config:    req.Config,
		UpdatedBy: actor.UserID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	saved, err := h.store.UpsertSidebarConfig(r.Context(), config)
	if err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "sidebar.put", "sidebar_config", &saved.ID, map[string]any{"role": roleName})
	response.JSON(w, saved)
}

// Clone copies the global default into a tenant-specific override, from
// which the tenant can then diverge.
func (h *Sidebar) Clone(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	tenant := sidebarTenant(r, actor)
	if tenant == nil {
		response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is required to clone"})
		return
	}

	global, err := h.store.GetSidebarConfig(r.Context(), roleName, nil)
	if err != nil {
		storeError(w, err)
		return
	}

	clone := &models.SidebarConfig{
		ID:        uuid.New(),
		RoleName:  roleName,
		TenantID:  tenant,
		Config:    global.Config,
		UpdatedBy: actor.UserID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	saved, err := h.store.UpsertSidebarConfig(r.Context(), clone)
	if err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "sidebar.clone", "sidebar_config", &saved.ID, map[string]any{"role": roleName})
	response.Created(w, saved)
}

// Reset drops the tenant override so the role falls back to the global
// default.
func (h *Sidebar) Reset(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	tenant := sidebarTenant(r, actor)
	if tenant == nil {
		response.ValidationFailed(w, map[string]string{"tenant_id": "the global default cannot be reset"})
		return
	}

	if err := h.store.DeleteSidebarConfig(r.Context(), roleName, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "sidebar.reset", "sidebar_config", nil, map[string]any{"role": roleName})
	w.WriteHeader(http.StatusNoContent)
}

// Export returns the raw config JSON for offline editing or copying
// between environments.
func (h *Sidebar) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	config, err := h.store.GetSidebarConfig(r.Context(), roleName, sidebarTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="sidebar_`+roleName+`.json"`)
	json.NewEncoder(w).Encode(config.Config)
}

// Import replaces the config for role+tenant with an uploaded JSON body.
func (h *Sidebar) Import(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")

	var config map[string]any
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if len(config) == 0 {
		response.ValidationFailed(w, map[string]string{"config": "config must not be empty"})
		return
	}

	saved, err := h.store.UpsertSidebarConfig(r.Context(), &models.SidebarConfig{
		ID:        uuid.New(),
		RoleName:  roleName,
		TenantID:  sidebarTenant(r, actor),
		Config:    config,
		UpdatedBy: actor.UserID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "sidebar.import", "sidebar_config", &saved.ID, map[string]any{"role": roleName})
	response.JSON(w, saved)
}
