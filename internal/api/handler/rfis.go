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

type RFIs struct {
	store store.Store
	// now is swappable so SLA labels are deterministic in tests.
	now func() time.Time
}

func NewRFIs(s store.Store) *RFIs {
	return &RFIs{store: s, now: time.Now}
}

// rfiView decorates an RFI with its derived SLA label.
type rfiView struct {
	*models.RFI
	SLAStatus string `json:"sla_status"`
}

func (h *RFIs) view(r *models.RFI) rfiView {
	return rfiView{RFI: r, SLAStatus: r.SLAStatus(h.now().UTC())}
}

func (h *RFIs) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f := workItemFilter(r, effectiveTenant(r, actor))

	rfis, total, err := h.store.ListRFIs(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}

	views := make([]rfiView, len(rfis))
	for i, rfi := range rfis {
		views[i] = h.view(rfi)
	}
	response.Collection(w, views, meta(f.ListParams, total))
}

func (h *RFIs) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "rfiID")
	if err != nil {
		response.NotFound(w, "RFI not found")
		return
	}
	rfi, err := h.store.GetRFI(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, h.view(rfi))
}

func (h *RFIs) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectID  string  `json:"project_id"`
		Subject    string  `json:"subject"`
		AssigneeID *string `json:"assignee_id"`
		DueDate    *string `json:"due_date"`
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
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		fields["subject"] = "subject is required"
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

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil && *req.AssigneeID != "" {
		id, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"assignee_id": "assignee_id is not a valid uuid"})
			return
		}
		assigneeID = &id
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := parseBodyDate(*req.DueDate)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"due_date": "due_date must be RFC3339 or YYYY-MM-DD"})
			return
		}
		dueDate = &t
	}

	now := time.Now().UTC()
	rfi := &models.RFI{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		TenantID:   project.TenantID,
		Subject:    subject,
		Status:     models.RFIStatusOpen,
		AssigneeID: assigneeID,
		CreatorID:  actor.UserID,
		DueDate:    dueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreateRFI(r.Context(), rfi); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "rfi.create", "rfi", &rfi.ID, nil)
	response.Created(w, h.view(rfi))
}

func (h *RFIs) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "rfiID")
	if err != nil {
		response.NotFound(w, "RFI not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	rfi, err := h.store.GetRFI(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Subject    *string `json:"subject"`
		Status     *string `json:"status"`
		AssigneeID *string `json:"assignee_id"`
		DueDate    *string `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Subject != nil {
		if strings.TrimSpace(*req.Subject) == "" {
			response.ValidationFailed(w, map[string]string{"subject": "subject cannot be empty"})
			return
		}
		rfi.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.RFIStatusOpen, models.RFIStatusAnswered, models.RFIStatusClosed:
			rfi.Status = *req.Status
		default:
			response.ValidationFailed(w, map[string]string{"status": "unknown status"})
			return
		}
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			rfi.AssigneeID = nil
		} else {
			aid, err := uuid.Parse(*req.AssigneeID)
			if err != nil {
				response.ValidationFailed(w, map[string]string{"assignee_id": "assignee_id is not a valid uuid"})
				return
			}
			rfi.AssigneeID = &aid
		}
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			rfi.DueDate = nil
		} else {
			t, err := parseBodyDate(*req.DueDate)
			if err != nil {
				response.ValidationFailed(w, map[string]string{"due_date": "due_date must be RFC3339 or YYYY-MM-DD"})
				return
			}
			rfi.DueDate = &t
		}
	}
	rfi.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateRFI(r.Context(), rfi, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "rfi.update", "rfi", &rfi.ID, nil)
	response.JSON(w, h.view(rfi))
}

func (h *RFIs) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "rfiID")
	if err != nil {
		response.NotFound(w, "RFI not found")
		return
	}
	if err := h.store.SoftDeleteRFI(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "rfi.delete", "rfi", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RFIs) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "rfiID")
	if err != nil {
		response.NotFound(w, "RFI not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreRFI(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	rfi, err := h.store.GetRFI(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "rfi.restore", "rfi", &id, nil)
	response.JSON(w, h.view(rfi))
}
