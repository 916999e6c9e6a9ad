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

type Documents struct {
	store store.Store
}

func NewDocuments(s store.Store) *Documents {
	return &Documents{store: s}
}

func (h *Documents) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	f := store.DocumentFilter{
		TenantID:   effectiveTenant(r, actor),
		ProjectID:  queryUUID(r, "project_id"),
		Search:     r.URL.Query().Get("search"),
		ListParams: parseListParams(r),
	}

	docs, total, err := h.store.ListDocuments(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, docs, meta(f.ListParams, total))
}

func (h *Documents) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "documentID")
	if err != nil {
		response.NotFound(w, "Document not found")
		return
	}
	doc, err := h.store.GetDocument(r.Context(), id, effectiveTenant(r, actor))
	if err != nil {
		storeError(w, err)
		return
	}
	response.JSON(w, doc)
}

// Create registers document metadata. The binary itself is uploaded to the
// storage backend out of band; only the resulting path is recorded here.
func (h *Documents) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProjectID string `json:"project_id"`
		Name      string `json:"name"`
		Path      string `json:"path"`
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
	if strings.TrimSpace(req.Path) == "" {
		fields["path"] = "path is required"
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
	doc := &models.Document{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		TenantID:   project.TenantID,
		Name:       name,
		Path:       strings.TrimSpace(req.Path),
		Version:    1,
		UploadedBy: actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.CreateDocument(r.Context(), doc); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "document.create", "document", &doc.ID, map[string]any{"name": doc.Name})
	response.Created(w, doc)
}

// Update renames a document or registers a new stored file for it. A new
// path bumps the version; a rename alone does not.
func (h *Documents) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "documentID")
	if err != nil {
		response.NotFound(w, "Document not found")
		return
	}

	var req struct {
		Name *string `json:"name"`
		Path *string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	tenant := effectiveTenant(r, actor)
	doc, err := h.store.GetDocument(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}

	fields := map[string]string{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			fields["name"] = "name cannot be blank"
		} else {
			doc.Name = name
		}
	}
	if req.Path != nil {
		path := strings.TrimSpace(*req.Path)
		if path == "" {
			fields["path"] = "path cannot be blank"
		} else if path != doc.Path {
			doc.Path = path
			doc.Version++
		}
	}
	if len(fields) > 0 {
		response.ValidationFailed(w, fields)
		return
	}

	if err := h.store.UpdateDocument(r.Context(), doc, tenant); err != nil {
		storeError(w, err)
		return
	}

	audit(r, h.store, actor, "document.update", "document", &doc.ID, map[string]any{"version": doc.Version})
	response.JSON(w, doc)
}

func (h *Documents) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "documentID")
	if err != nil {
		response.NotFound(w, "Document not found")
		return
	}
	if err := h.store.SoftDeleteDocument(r.Context(), id, effectiveTenant(r, actor)); err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "document.delete", "document", &id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Documents) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := urlUUID(r, "documentID")
	if err != nil {
		response.NotFound(w, "Document not found")
		return
	}
	tenant := effectiveTenant(r, actor)
	if err := h.store.RestoreDocument(r.Context(), id, tenant); err != nil {
		storeError(w, err)
		return
	}
	doc, err := h.store.GetDocument(r.Context(), id, tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	audit(r, h.store, actor, "document.restore", "document", &id, nil)
	response.JSON(w, doc)
}
