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

type Users struct {
	store store.Store
}

func NewUsers(s store.Store) *Users {
	return &Users{store: s}
}

func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.UserFilter{
		TenantID:    effectiveTenant(r, actor),
		Role:        q.Get("role"),
		Status:      q.Get("status"),
		Search:      q.Get("search"),
		CreatedFrom: queryTime(r, "created_from"),
		CreatedTo:   queryTime(r, "created_to"),
		ListParams:  parseListParams(r),
	}

	users, total, err := h.store.ListUsers(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, users, meta(f.ListParams, total))
}

func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "userID")
	if err != nil {
		response.NotFound(w, "User not found")
		return
	}

	user, err := h.store.GetUser(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, user)
}

func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	// Only super admins may place a user in another tenant.
	tenantID := actor.TenantID
	if actor.IsSuperAdmin() && req.TenantID != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is not a valid uuid"})
			return
		}
		tenantID = id
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	name := strings.TrimSpace(req.Name)

	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "email is invalid"
	}
	if name == "" {
		fields["name"] = "name is required"
	}
	if !models.ValidRole(req.Role) {
		fields["role"] = "role must be one of super_admin, org_admin, member"
	} else if req.Role == models.RoleSuperAdmin && !actor.IsSuperAdmin() {
		fields["role"] = "only super admins can grant super_admin"
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		Name:      name,
		Role:      req.Role,
		Status:    models.UserStatusInvited,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "user.create", "user", &user.ID, map[string]any{"email": user.Email})
	response.Created(w, user)
}

func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "userID")
	if err != nil {
		response.NotFound(w, "User not found")
		return
	}

	tenant := effectiveTenant(r, actor)
	user, err := h.store.GetUser(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Name       *string `json:"name"`
		Role       *string `json:"role"`
		MFAEnabled *bool   `json:"mfa_enabled"`
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
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) || (*req.Role == models.RoleSuperAdmin && !actor.IsSuperAdmin()) {
			response.ValidationFailed(w, map[string]string{"role": "invalid role"})
			return
		}
		user.Role = *req.Role
	}
	if req.MFAEnabled != nil {
		user.MFAEnabled = *req.MFAEnabled
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateUser(r.Context(), user, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "user.update", "user", &user.ID, nil)
	response.JSON(w, user)
}

func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "userID")
	if err != nil {
		response.NotFound(w, "User not found")
		return
	}
	if err := h.store.SoftDeleteUser(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "user.delete", "user", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Users) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "userID")
	if err != nil {
		response.NotFound(w, "User not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreUser(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	user, err := h.store.GetUser(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "user.restore", "user", &id, nil)
	response.JSON(w, user)
}

// bulkResult reports the outcome per id. The endpoint always returns 200
// with both lists, even when every id failed.
type bulkResult struct {
	Succeeded []uuid.UUID       `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}

// Bulk applies enable/disable/delete to a batch of user ids.
func (h *Users) Bulk(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Action string   `json:"action"`
		IDs    []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Action != "enable" && req.Action != "disable" && req.Action != "delete" {
		response.ValidationFailed(w, map[string]string{"action": "action must be enable, disable, or delete"})
		return
	}
	if len(req.IDs) == 0 {
		response.ValidationFailed(w, map[string]string{"ids": "ids must not be empty"})
		return
	}

	tenant := effectiveTenant(r, actor)
	result := bulkResult{Succeeded: []uuid.UUID{}, Failed: map[string]string{}}

	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			result.Failed[raw] = "not a valid uuid"
			continue
		}

		switch req.Action {
		case "enable":
			err = h.store.SetUserStatus(r.Context(), id, tenant, models.UserStatusActive)
		case "disable":
			err = h.store.SetUserStatus(r.Context(), id, tenant, models.UserStatusDisabled)
		case "delete":
			err = h.store.SoftDeleteUser(r.Context(), id, tenant)
		}
		if err != nil {
			result.Failed[raw] = "user not found"
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	audit(r, h.store, actor, "user.bulk_"+req.Action, "user", nil, map[string]any{
		"requested": len(req.IDs),
		"succeeded": len(result.Succeeded),
	})
	response.JSON(w, result)
}
