package handler

import (
	"net/http"

	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/store"
)

// Audit serves the read-only audit trail.
type Audit struct {
	store store.Store
}

func NewAudit(s store.Store) *Audit {
	return &Audit{store: s}
}

func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.AuditFilter{
		TenantID:   effectiveTenant(r, actor),
		UserID:     queryUUID(r, "user_id"),
		Action:     q.Get("action"),
		Entity:     q.Get("entity"),
		From:       queryTime(r, "from"),
		To:         queryTime(r, "to"),
		ListParams: parseListParams(r),
	}

	logs, total, err := h.store.ListAuditLogs(r.Context(), f)
	if err != nil {
		storeError(w, err)
		return
	}
	response.Collection(w, logs, meta(f.ListParams, total))
}
