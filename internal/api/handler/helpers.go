// Package handler contains the HTTP handlers for the admin API. Each
// entity gets its own file; shared request plumbing lives here.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/sitedeskhq/sitedesk/internal/api/middleware"
	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/scope"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// requireActor pulls the authenticated actor from the context. The auth
// middleware guarantees it on protected routes; a miss means a wiring bug.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := mw.GetActor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
	}
	return actor, ok
}

// effectiveTenant resolves the tenant scope for the request: the actor's
// own tenant unless a super admin asked for another (or all) via
// ?tenant_id=.
func effectiveTenant(r *http.Request, actor models.Actor) *uuid.UUID {
	var requested *uuid.UUID
	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			requested = &id
		}
	}
	return scope.Resolve(actor, requested)
}

// parseListParams reads sort_by/sort_dir/page/per_page. Values are
// validated and clamped downstream in the store.
func parseListParams(r *http.Request) store.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return store.ListParams{
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
		Page:    page,
		PerPage: perPage,
	}
}

func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func queryUUID(r *http.Request, name string) *uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// queryTime parses an RFC3339 or YYYY-MM-DD query value; zero on absence
// or parse failure, which the condition builder then ignores.
func queryTime(r *http.Request, name string) time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

// storeError maps store sentinels onto the API error taxonomy. Unknown
// errors are logged and surfaced as a fixed 500.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(w, "Resource not found")
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "CONFLICT", "A record with these values already exists", nil)
	case errors.Is(err, store.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	default:
		slog.Error("store operation failed", "error", err)
		response.Internal(w)
	}
}

// audit writes an audit row for a completed admin action. Audit failures
// are logged, never surfaced: the action itself already succeeded.
func audit(r *http.Request, s store.Store, actor models.Actor, action, entity string, entityID *uuid.UUID, details map[string]any) {
	var tenant *uuid.UUID
	if !actor.IsSuperAdmin() {
		t := actor.TenantID
		tenant = &t
	}
	log := &models.AuditLog{
		ID:        uuid.New(),
		TenantID:  tenant,
		UserID:    actor.UserID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		IP:        r.RemoteAddr,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.AppendAuditLog(r.Context(), log); err != nil {
		slog.Error("audit append failed", "error", err, "action", action)
	}
}

func meta(p store.ListParams, total int) response.PaginationMeta {
	page, perPage := store.ClampPage(p.Page, p.PerPage)
	return response.NewMeta(page, perPage, total)
}
