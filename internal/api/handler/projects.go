package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

type Projects struct {
	store store.Store
}

func NewProjects(s store.Store) *Projects {
	return &Projects{store: s}
}

func (h *Projects) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.ProjectFilter{
		TenantID:    effectiveTenant(r, actor),
		Status:      q.Get("status"),
		Search:      q.Get("search"),
		CreatedFrom: queryTime(r, "created_from"),
		CreatedTo:   queryTime(r, "created_to"),
		ListParams:  parseListParams(r),
	}

	projects, total, err := h.store.ListProjects(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, projects, meta(f.ListParams, total))
}

func (h *Projects) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "projectID")
	if err != nil {
		response.NotFound(w, "Project not found")
		return
	}

	project, err := h.store.GetProject(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, project)
}

func (h *Projects) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		TenantID string         `json:"tenant_id"`
		Name     string         `json:"name"`
		Code     string         `json:"code"`
		Settings map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() && req.TenantID != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is not a valid uuid"})
			return
		}
		tenantID = id
	}

	name := strings.TrimSpace(req.Name)
	code := strings.TrimSpace(req.Code)
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "name is required"
	}
	if code == "" {
		fields["code"] = "code is required"
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}
	if req.Settings == nil {
		req.Settings = map[string]any{}
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Code:      code,
		Status:    models.ProjectStatusActive,
		Settings:  req.Settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateProject(r.Context(), project); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "project.create", "project", &project.ID, map[string]any{"code": project.Code})
	response.Created(w, project)
}

func (h *Projects) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "projectID")
	if err != nil {
		response.NotFound(w, "Project not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	project, err := h.store.GetProject(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Name     *string        `json:"name"`
		Settings map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			response.ValidationFailed(w, map[string]string{"name": "name cannot be empty"})
			return
		}
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Settings != nil {
		// Force-ops history is owned by the state machine, not the client.
		if history, ok := project.Settings["force_ops"]; ok {
			req.Settings["force_ops"] = history
		}
		project.Settings = req.Settings
	}
	project.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateProject(r.Context(), project, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "project.update", "project", &project.ID, nil)
	response.JSON(w, project)
}

func (h *Projects) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "projectID")
	if err != nil {
		response.NotFound(w, "Project not found")
		return
	}
	if err := h.store.SoftDeleteProject(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "project.delete", "project", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Projects) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "projectID")
	if err != nil {
		response.NotFound(w, "Project not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreProject(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	project, err := h.store.GetProject(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "project.restore", "project", &id, nil)
	response.JSON(w, project)
}

// Force-ops actions. Each maps to a target status; the store validates the
// transition against the project's current status under a row lock.

func (h *Projects) Freeze(w http.ResponseWriter, r *http.Request) {
	h.forceOps(w, r, "freeze", models.ProjectStatusFrozen)
}

func (h *Projects) Archive(w http.ResponseWriter, r *http.Request) {
	h.forceOps(w, r, "archive", models.ProjectStatusArchived)
}

func (h *Projects) Suspend(w http.ResponseWriter, r *http.Request) {
	h.forceOps(w, r, "suspend", models.ProjectStatusSuspended)
}

func (h *Projects) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.forceOps(w, r, "reactivate", models.ProjectStatusActive)
}

func (h *Projects) forceOps(w http.ResponseWriter, r *http.Request, action, newStatus string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "projectID")
	if err != nil {
		response.NotFound(w, "Project not found")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		response.ValidationFailed(w, map[string]string{"reason": "reason is required"})
		return
	}

	rec := models.ForceOpsRecord{
		Action:  action,
		ActorID: actor.UserID,
		Reason:  strings.TrimSpace(req.Reason),
		At:      time.Now().UTC(),
	}

	project, err := h.store.TransitionProject(r.Context(), id, effectiveTenant(r, actor), newStatus, rec)
	if err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "project."+action, "project", &id, map[string]any{
		"reason":     rec.Reason,
		"new_status": newStatus,
	})
	response.JSON(w, project)
}
