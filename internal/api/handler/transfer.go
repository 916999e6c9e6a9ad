package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/internal/transfer"
)

// maxImportBytes bounds uploaded CSV files.
const maxImportBytes = 10 << 20

// Transfer wires the CSV exporter and importers to HTTP.
type Transfer struct {
	store    store.Store
	exporter *transfer.Exporter
}

func NewTransfer(s store.Store) *Transfer {
	return &Transfer{store: s, exporter: transfer.NewExporter(s)}
}

func csvHeaders(w http.ResponseWriter, entity string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_%s.csv", entity, time.Now().UTC().Format("20060102_150405")))
}

// exportErr handles failures after the response may have started
// streaming; at that point all we can do is log.
func exportErr(w http.ResponseWriter, started bool, err error) {
	slog.Error("csv export failed", "error", err)
	if !started {
		response.Internal(w)
	}
}

func (h *Transfer) ExportUsers(w http.ResponseWriter, r *http.Request) {
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
	}

	csvHeaders(w, "users")
	if err := h.exporter.ExportUsers(r.Context(), w, f); err != nil {
		exportErr(w, true, err)
		return
	}
	audit(r, h.store, actor, "user.export", "user", nil, nil)
}

func (h *Transfer) ExportProjects(w http.ResponseWriter, r *http.Request) {
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
	}

	csvHeaders(w, "projects")
	if err := h.exporter.ExportProjects(r.Context(), w, f); err != nil {
		exportErr(w, true, err)
		return
	}
	audit(r, h.store, actor, "project.export", "project", nil, nil)
}

func (h *Transfer) ExportTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	f := workItemFilter(r, effectiveTenant(r, actor))
	f.ListParams = store.ListParams{}

	csvHeaders(w, "tasks")
	if err := h.exporter.ExportTasks(r.Context(), w, f); err != nil {
		exportErr(w, true, err)
		return
	}
	audit(r, h.store, actor, "task.export", "task", nil, nil)
}

// importFile pulls the uploaded "file" part and the import mode from a
// multipart form.
func importFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	var mode string
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form upload", nil)
		return nil, "", false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		response.ValidationFailed(w, map[string]string{"file": "file is required"})
		return nil, "", false
	}
	mode = r.FormValue("mode")
	if mode == "" {
		mode = transfer.ModeInsert
	}
	if mode != transfer.ModeInsert && mode != transfer.ModeUpsert {
		file.Close()
		response.ValidationFailed(w, map[string]string{"mode": "mode must be insert or upsert"})
		return nil, "", false
	}
	return file, mode, true
}

func (h *Transfer) ImportUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	// Imports always target a single concrete tenant.
	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		t := queryUUID(r, "tenant_id")
		if t == nil {
			response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is required"})
			return
		}
		tenantID = *t
	}

	file, mode, ok := importFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := transfer.ImportUsers(r.Context(), h.store, file, tenantID, mode)
	if err != nil {
		response.ValidationFailed(w, map[string]string{"file": err.Error()})
		return
	}

	audit(r, h.store, actor, "user.import", "user", nil, map[string]any{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	response.JSON(w, result)
}

func (h *Transfer) ImportTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	tenantID := actor.TenantID
	if actor.IsSuperAdmin() {
		t := queryUUID(r, "tenant_id")
		if t == nil {
			response.ValidationFailed(w, map[string]string{"tenant_id": "tenant_id is required"})
			return
		}
		tenantID = *t
	}

	file, mode, ok := importFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := transfer.ImportTasks(r.Context(), h.store, file, tenantID, actor.UserID, mode)
	if err != nil {
		response.ValidationFailed(w, map[string]string{"file": err.Error()})
		return
	}

	audit(r, h.store, actor, "task.import", "task", nil, map[string]any{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	response.JSON(w, result)
}
