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

// QC handles quality-control plans and their inspections.
type QC struct {
	store store.Store
}

func NewQC(s store.Store) *QC {
	return &QC{store: s}
}

func (h *QC) ListPlans(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f := workItemFilter(r, effectiveTenant(r, actor))

	plans, total, err := h.store.ListQcPlans(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, plans, meta(f.ListParams, total))
}

func (h *QC) GetPlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "planID")
	if err != nil {
		response.NotFound(w, "QC plan not found")
		return
	}
	plan, err := h.store.GetQcPlan(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, plan)
}

func (h *QC) CreatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectID string `json:"project_id"`
		Name      string `json:"name"`
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
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fields["name"] = "name is required"
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
	plan := &models.QcPlan{
		ID:        uuid.New(),
		ProjectID: project.ID,
		TenantID:  project.TenantID,
		Name:      name,
		Status:    models.QcPlanStatusDraft,
		CreatorID: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateQcPlan(r.Context(), plan); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "qc_plan.create", "qc_plan", &plan.ID, nil)
	response.Created(w, plan)
}

func (h *QC) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "planID")
	if err != nil {
		response.NotFound(w, "QC plan not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	plan, err := h.store.GetQcPlan(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Status *string `json:"status"`
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
		plan.Name = strings.TrimSpace(*req.Name)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.QcPlanStatusDraft, models.QcPlanStatusApproved, models.QcPlanStatusRetired:
			plan.Status = *req.Status
		default:
			response.ValidationFailed(w, map[string]string{"status": "unknown status"})
			return
		}
	}
	plan.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateQcPlan(r.Context(), plan, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "qc_plan.update", "qc_plan", &plan.ID, nil)
	response.JSON(w, plan)
}

func (h *QC) DeletePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "planID")
	if err != nil {
		response.NotFound(w, "QC plan not found")
		return
	}
	if err := h.store.SoftDeleteQcPlan(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "qc_plan.delete", "qc_plan", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *QC) RestorePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "planID")
	if err != nil {
		response.NotFound(w, "QC plan not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreQcPlan(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	plan, err := h.store.GetQcPlan(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "qc_plan.restore", "qc_plan", &id, nil)
	response.JSON(w, plan)
}

func (h *QC) ListInspections(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.InspectionFilter{
		TenantID:      effectiveTenant(r, actor),
		ProjectID:     queryUUID(r, "project_id"),
		PlanID:        queryUUID(r, "plan_id"),
		Status:        q.Get("status"),
		ScheduledFrom: queryTime(r, "scheduled_from"),
		ScheduledTo:   queryTime(r, "scheduled_to"),
		ListParams:    parseListParams(r),
	}

	inspections, total, err := h.store.ListQcInspections(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, inspections, meta(f.ListParams, total))
}

func (h *QC) GetInspection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "inspectionID")
	if err != nil {
		response.NotFound(w, "Inspection not found")
		return
	}
	inspection, err := h.store.GetQcInspection(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, inspection)
}

func (h *QC) CreateInspection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		PlanID       string  `json:"plan_id"`
		InspectorID  *string `json:"inspector_id"`
		ScheduledFor *string `json:"scheduled_for"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		response.ValidationFailed(w, map[string]string{"plan_id": "plan_id is not a valid uuid"})
		return
	}

	tenant := effectiveTenant(r, actor)
	plan, err := h.store.GetQcPlan(r.Context(), planID, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var inspectorID *uuid.UUID
	if req.InspectorID != nil && *req.InspectorID != "" {
		id, err := uuid.Parse(*req.InspectorID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"inspector_id": "inspector_id is not a valid uuid"})
			return
		}
		inspectorID = &id
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != nil && *req.ScheduledFor != "" {
		t, err := parseBodyDate(*req.ScheduledFor)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"scheduled_for": "scheduled_for must be RFC3339 or YYYY-MM-DD"})
			return
		}
		scheduledFor = &t
	}

	now := time.Now().UTC()
	inspection := &models.QcInspection{
		ID:           uuid.New(),
		PlanID:       plan.ID,
		ProjectID:    plan.ProjectID,
		TenantID:     plan.TenantID,
		Status:       models.InspectionStatusScheduled,
		InspectorID:  inspectorID,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateQcInspection(r.Context(), inspection); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "qc_inspection.create", "qc_inspection", &inspection.ID, nil)
	response.Created(w, inspection)
}

func (h *QC) UpdateInspection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "inspectionID")
	if err != nil {
		response.NotFound(w, "Inspection not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	inspection, err := h.store.GetQcInspection(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Status *string `json:"status"`
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case models.InspectionStatusScheduled, models.InspectionStatusPassed, models.InspectionStatusFailed:
			inspection.Status = *req.Status
		default:
			response.ValidationFailed(w, map[string]string{"status": "unknown status"})
			return
		}
	}
	if req.Result != nil {
		inspection.Result = req.Result
	}
	inspection.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateQcInspection(r.Context(), inspection, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "qc_inspection.update", "qc_inspection", &inspection.ID, nil)
	response.JSON(w, inspection)
}

func (h *QC) DeleteInspection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "inspectionID")
	if err != nil {
		response.NotFound(w, "QC inspection not found")
		return
	}
	if err := h.store.SoftDeleteQcInspection(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "qc_inspection.delete", "qc_inspection", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *QC) RestoreInspection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "inspectionID")
	if err != nil {
		response.NotFound(w, "QC inspection not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreQcInspection(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	inspection, err := h.store.GetQcInspection(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "qc_inspection.restore", "qc_inspection", &id, nil)
	response.JSON(w, inspection)
}
