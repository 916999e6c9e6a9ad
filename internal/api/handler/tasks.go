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

type Tasks struct {
	store store.Store
}

func NewTasks(s store.Store) *Tasks {
	return &Tasks{store: s}
}

func workItemFilter(r *http.Request, tenant *uuid.UUID) store.WorkItemFilter {
	q := r.URL.Query()
	return store.WorkItemFilter{
		TenantID:   tenant,
		ProjectID:  queryUUID(r, "project_id"),
		Status:     q.Get("status"),
		AssigneeID: queryUUID(r, "assignee_id"),
		Search:     q.Get("search"),
		DueFrom:    queryTime(r, "due_from"),
		DueTo:      queryTime(r, "due_to"),
		ListParams: parseListParams(r),
	}
}

func (h *Tasks) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f := workItemFilter(r, effectiveTenant(r, actor))

	tasks, total, err := h.store.ListTasks(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, tasks, meta(f.ListParams, total))
}

func (h *Tasks) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "taskID")
	if err != nil {
		response.NotFound(w, "Task not found")
		return
	}
	task, err := h.store.GetTask(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, task)
}

func (h *Tasks) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectID  string  `json:"project_id"`
		Title      string  `json:"title"`
		Priority   string  `json:"priority"`
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

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	status := models.TaskStatusOpen
	if assigneeID != nil {
		status = models.TaskStatusAssigned
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		TenantID:   project.TenantID,
		Title:      title,
		Status:     status,
		Priority:   priority,
		AssigneeID: assigneeID,
		CreatorID:  actor.UserID,
		DueDate:    dueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "task.create", "task", &task.ID, nil)
	response.Created(w, task)
}

func (h *Tasks) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "taskID")
	if err != nil {
		response.NotFound(w, "Task not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	task, err := h.store.GetTask(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Title      *string `json:"title"`
		Status     *string `json:"status"`
		Priority   *string `json:"priority"`
		AssigneeID *string `json:"assignee_id"`
		DueDate    *string `json:"due_date"`
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
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Status != nil {
		if !models.ValidTaskStatus(*req.Status) {
			response.ValidationFailed(w, map[string]string{"status": "unknown status"})
			return
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			task.AssigneeID = nil
		} else {
			aid, err := uuid.Parse(*req.AssigneeID)
			if err != nil {
				response.ValidationFailed(w, map[string]string{"assignee_id": "assignee_id is not a valid uuid"})
				return
			}
			task.AssigneeID = &aid
		}
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			t, err := parseBodyDate(*req.DueDate)
			if err != nil {
				response.ValidationFailed(w, map[string]string{"due_date": "due_date must be RFC3339 or YYYY-MM-DD"})
				return
			}
			task.DueDate = &t
		}
	}
	task.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateTask(r.Context(), task, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "task.update", "task", &task.ID, nil)
	response.JSON(w, task)
}

func (h *Tasks) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "taskID")
	if err != nil {
		response.NotFound(w, "Task not found")
		return
	}
	if err := h.store.SoftDeleteTask(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "task.delete", "task", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Tasks) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "taskID")
	if err != nil {
		response.NotFound(w, "Task not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreTask(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	task, err := h.store.GetTask(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "task.restore", "task", &id, nil)
	response.JSON(w, task)
}

func parseBodyDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
