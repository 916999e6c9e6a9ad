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

// Tenants handles the platform-level tenant endpoints. The router mounts
// these behind RequireSuperAdmin.
type Tenants struct {
	store store.Store
}

func NewTenants(s store.Store) *Tenants {
	return &Tenants{store: s}
}

func (h *Tenants) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TenantFilter{
		Status:     q.Get("status"),
		Plan:       q.Get("plan"),
		Search:     q.Get("search"),
		ListParams: parseListParams(r),
	}

	tenants, total, err := h.store.ListTenants(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, tenants, meta(f.ListParams, total))
}

func (h *Tenants) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "tenantID")
	if err != nil {
		response.NotFound(w, "Tenant not found")
		return
	}
	tenant, err := h.store.GetTenant(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, tenant)
}

func (h *Tenants) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
		Plan   string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(req.Domain) == "" {
		fields["domain"] = "domain is required"
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}
	if req.Plan == "" {
		req.Plan = "standard"
	}

	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Domain:    strings.ToLower(strings.TrimSpace(req.Domain)),
		Plan:      req.Plan,
		Status:    models.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateTenant(r.Context(), tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "tenant.create", "tenant", &tenant.ID, map[string]any{"domain": tenant.Domain})
	response.Created(w, tenant)
}

func (h *Tenants) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "tenantID")
	if err != nil {
		response.NotFound(w, "Tenant not found")
		return
	}

	tenant, err := h.store.GetTenant(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		Name *string `json:"name"`
		Plan *string `json:"plan"`
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
		tenant.Name = strings.TrimSpace(*req.Name)
	}
	if req.Plan != nil {
		tenant.Plan = *req.Plan
	}
	tenant.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateTenant(r.Context(), tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "tenant.update", "tenant", &tenant.ID, nil)
	response.JSON(w, tenant)
}

// Disable suspends all access for a tenant without deleting its data.
func (h *Tenants) Disable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.TenantStatusDisabled, "tenant.disable")
}

func (h *Tenants) Enable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.TenantStatusActive, "tenant.enable")
}

func (h *Tenants) setStatus(w http.ResponseWriter, r *http.Request, status, action string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "tenantID")
	if err != nil {
		response.NotFound(w, "Tenant not found")
		return
	}
	if err := h.store.SetTenantStatus(r.Context(), id, status); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, action, "tenant", &id, nil)
	response.JSON(w, map[string]string{"id": id.String(), "status": status})
}
