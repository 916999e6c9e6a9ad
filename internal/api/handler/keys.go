package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// Keys manages API keys. The raw key is returned exactly once, at
// creation; only its bcrypt hash is stored.
type Keys struct {
	store store.Store
}

func NewKeys(s store.Store) *Keys {
	return &Keys{store: s}
}

// generateRawKey returns a new "sd_"-prefixed secret. The first eight
// characters double as the lookup prefix stored alongside the hash.
func generateRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "sd_" + hex.EncodeToString(buf), nil
}

func (h *Keys) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name   string   `json:"name"`
		UserID string   `json:"user_id"`
		Role   string   `json:"role"`
		Scopes []string `json:"scopes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		fields["user_id"] = "user_id is not a valid uuid"
	}
	if !models.ValidRole(req.Role) {
		fields["role"] = "invalid role"
	} else if req.Role == models.RoleSuperAdmin && !actor.IsSuperAdmin() {
		fields["role"] = "only super admins can mint super_admin keys"
	}
	if len(req.Scopes) == 0 {
		fields["scopes"] = "at least one scope is required"
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}

	// The key's user must exist within the actor's scope.
	tenant := effectiveTenant(r, actor)
	user, err := h.store.GetUser(r.Context(), userID, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	rawKey, err := generateRawKey()
	if err != nil {
		storeError(w, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		storeError(w, err)
		return
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  user.TenantID,
		UserID:    user.ID,
		Name:      strings.TrimSpace(req.Name),
		KeyHash:   string(hash),
		KeyPrefix: rawKey[:8],
		Role:      req.Role,
		Scopes:    req.Scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "api_key.create", "api_key", &key.ID, map[string]any{"name": key.Name})
	response.Created(w, map[string]any{
		"key":     key,
		"raw_key": rawKey, // shown once, never retrievable again
	})
}

func (h *Keys) List(w http.ResponseWriter, r *http.Request) {
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

	keys, err := h.store.ListAPIKeys(r.Context(), tenantID)
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, keys)
}

func (h *Keys) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "keyID")
	if err != nil {
		response.NotFound(w, "API key not found")
		return
	}

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		if t := queryUUID(r, "tenant_id"); t != nil {
			tenantID = *t
		}
	}

	if err := h.store.RevokeAPIKey(r.Context(), id, tenantID); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "api_key.revoke", "api_key", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}
