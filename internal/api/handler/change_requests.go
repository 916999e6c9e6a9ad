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

type ChangeRequests struct {
	store store.Store
}

func NewChangeRequests(s store.Store) *ChangeRequests {
	return &ChangeRequests{store: s}
}

func (h *ChangeRequests) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f := workItemFilter(r, effectiveTenant(r, actor))

	items, total, err := h.store.ListChangeRequests(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, items, meta(f.ListParams, total))
}

func (h *ChangeRequests) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "changeRequestID")
	if err != nil {
		response.NotFound(w, "Change request not found")
		return
	}
	cr, err := h.store.GetChangeRequest(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, cr)
}

func (h *ChangeRequests) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectID string `json:"project_id"`
		Title     string `json:"title"`
		Impact    string `json:"impact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	fields := map[string]string{}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		fields["project_id"] = "project_id is not a valid uuid"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fields["title"] = "title is required"
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}

	tenant := effectiveTenant(r, actor)
	project, err := h.store.GetProject(r.Context(), projectID, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	now := time.Now().UTC()
	cr := &models.ChangeRequest{
		ID:        uuid.New(),
		ProjectID: project.ID,
		TenantID:  project.TenantID,
		Title:     title,
		Status:    models.ChangeRequestStatusProposed,
		Impact:    req.Impact,
		CreatorID: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateChangeRequest(r.Context(), cr); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "change_request.create", "change_request", &cr.ID, nil)
	response.Created(w, cr)
}

func (h *ChangeRequests) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "changeRequestID")
	if err != nil {
		response.NotFound(w, "Change request not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	cr, err := h.store.GetChangeRequest(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
		Impact *string `json:"impact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			response.ValidationFailed(w, map[string]string{"title": "title cannot be empty"})
			return
		}
		cr.Title = strings.TrimSpace(*req.Title)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ChangeRequestStatusProposed, models.ChangeRequestStatusApproved,
			models.ChangeRequestStatusRejected, models.ChangeRequestStatusApplied:
			cr.Status = *req.Status
		default:
			response.ValidationFailed(w, map[string]string{"status": "unknown status"})
			return
		}
	}
	if req.Impact != nil {
		cr.Impact = *req.Impact
	}
	cr.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateChangeRequest(r.Context(), cr, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "change_request.update", "change_request", &cr.ID, nil)
	response.JSON(w, cr)
}

func (h *ChangeRequests) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "changeRequestID")
	if err != nil {
		response.NotFound(w, "Change request not found")
		return
	}
	if err := h.store.SoftDeleteChangeRequest(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "change_request.delete", "change_request", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChangeRequests) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "changeRequestID")
	if err != nil {
		response.NotFound(w, "Change request not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreChangeRequest(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	cr, err := h.store.GetChangeRequest(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "change_request.restore", "change_request", &id, nil)
	response.JSON(w, cr)
}
