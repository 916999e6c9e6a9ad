package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/flags"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// Flags serves feature flag resolution, overrides, and module readiness.
type Flags struct {
	store store.Store
	svc   *flags.Service
}

func NewFlags(s store.Store, svc *flags.Service) *Flags {
	return &Flags{store: s, svc: svc}
}

func (h *Flags) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	all, err := h.store.ListFeatureFlags(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, all)
}

// Resolve answers "is this flag on for me" through the override chain.
// Super admins can resolve on behalf of another tenant or user.
func (h *Flags) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "flagKey")

	tenantID := actor.TenantID
	userID := actor.UserID
	if actor.IsSuperAdmin() {
		if t := queryUUID(r, "tenant_id"); t != nil {
			tenantID = *t
		}
		if u := queryUUID(r, "user_id"); u != nil {
			userID = *u
		}
	}

	res, err := h.svc.Resolve(r.Context(), key, tenantID, userID)
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, res)
}

// SetOverride pins a flag for a tenant or a user. Exactly one of tenant_id
// and user_id must be set; a null enabled clears the override.
func (h *Flags) SetOverride(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "flagKey")

	if _, err := h.store.GetFeatureFlag(r.Context(), key); err != nil {
		storeError(w, err)
		return
	}

	var req struct {
		TenantID *string `json:"tenant_id"`
		UserID   *string `json:"user_id"`
		Enabled  *bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	var tenantID, userID *uuid.UUID
	if req.TenantID != nil {
		id, err := uuid.Parse(*req.TenantID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is not a valid uuid"})
			return
		}
		tenantID = &id
	}
	if req.UserID != nil {
		id, err := uuid.Parse(*req.UserID)
		if err != nil {
			response.ValidationFailed(w, map[string]string{"user_id": "user_id is not a valid uuid"})
			return
		}
		userID = &id
	}
	if (tenantID == nil) == (userID == nil) {
		response.ValidationFailed(w, map[string]string{"target": "exactly one of tenant_id and user_id is required"})
		return
	}

	// Scoped admins may only touch their own tenant and its users.
	if !actor.IsSuperAdmin() {
		if tenantID != nil && *tenantID != actor.TenantID {
			response.Error(w, http.StatusForbidden, "FORBIDDEN", "Cannot override flags for another tenant", nil)
			return
		}
		if userID != nil {
			if _, err := h.store.GetUser(r.Context(), *userID, &actor.TenantID); err != nil {
				storeError(w, err)
				return
			}
		}
	}

	if req.Enabled == nil {
		if err := h.store.ClearFlagOverride(r.Context(), key, tenantID, userID); err != nil {
			storeError(w, err)
			return
		}
		audit(r, h.store, actor, "flag.clear_override", "feature_flag", nil, map[string]any{"key": key})
		w.WriteHeader(http.StatusNoContent)
		return
	}

	override := &models.FlagOverride{
		ID:        uuid.New(),
		FlagKey:   key,
		TenantID:  tenantID,
		UserID:    userID,
		Enabled:   *req.Enabled,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.store.SetFlagOverride(r.Context(), override); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "flag.set_override", "feature_flag", nil, map[string]any{
		"key":     key,
		"enabled": *req.Enabled,
	})
	response.JSON(w, override)
}

// UpsertFlag defines a flag or updates its default. Super admin only.
func (h *Flags) UpsertFlag(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "flagKey")

	var req struct {
		Description    string `json:"description"`
		DefaultEnabled bool   `json:"default_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	flag := &models.FeatureFlag{
		Key:            key,
		Description:    req.Description,
		DefaultEnabled: req.DefaultEnabled,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := h.store.UpsertFeatureFlag(r.Context(), flag); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "flag.upsert", "feature_flag", nil, map[string]any{"key": key})
	response.JSON(w, flag)
}

func (h *Flags) Readiness(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		if t := queryUUID(r, "tenant_id"); t != nil {
			tenantID = *t
		}
	}

	readiness, err := h.svc.Readiness(r.Context(), tenantID, r.URL.Query().Get("module"))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, readiness)
}

// SetReadinessItem toggles one checklist item for the actor's tenant.
func (h *Flags) SetReadinessItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	module := chi.URLParam(r, "module")
	item := chi.URLParam(r, "item")

	if !flags.KnownModule(module) || !flags.KnownItem(module, item) {
		response.NotFound(w, "Unknown readiness item")
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		if t := queryUUID(r, "tenant_id"); t != nil {
			tenantID = *t
		}
	}

	if err := h.store.SetReadinessItem(r.Context(), &models.ReadinessItem{
		TenantID:  tenantID,
		Module:    module,
		ItemKey:   item,
		Completed: req.Completed,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "readiness.set", "module_readiness", nil, map[string]any{
		"module":    module,
		"item":      item,
		"completed": req.Completed,
	})
	w.WriteHeader(http.StatusNoContent)
}
