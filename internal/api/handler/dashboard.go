package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/cache"
	"github.com/sitedeskhq/sitedesk/internal/store"
)

// Dashboard serves the KPI rollup. Counts are cached per tenant scope so a
// dashboard auto-refreshing every few seconds does not hammer Postgres.
type Dashboard struct {
	store store.Store
	cache cache.Cache
	ttl   time.Duration
}

func NewDashboard(s store.Store, c cache.Cache, ttl time.Duration) *Dashboard {
	return &Dashboard{store: s, cache: c, ttl: ttl}
}

type kpiResponse struct {
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	UsersByStatus    map[string]int `json:"users_by_status"`
	OpenTasks        int            `json:"open_tasks"`
	OverdueRFIs      int            `json:"overdue_rfis"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

func (h *Dashboard) KPIs(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tenant := effectiveTenant(r, actor)

	key := cache.KPIKey(tenant)
	if cached, hit, err := h.cache.Get(r.Context(), key); err == nil && hit {
		var kpis kpiResponse
		if json.Unmarshal(cached, &kpis) == nil {
			response.JSON(w, kpis)
			return
		}
	}

	projects, err := h.store.CountProjectsByStatus(r.Context(), tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	users, err := h.store.CountUsersByStatus(r.Context(), tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	openTasks, err := h.store.CountOpenTasks(r.Context(), tenant)
	if err != nil {
		storeError(w, err)
		return
	}
	overdueRFIs, err := h.store.CountOverdueRFIs(r.Context(), tenant, time.Now().UTC())
	if err != nil {
		storeError(w, err)
		return
	}

	kpis := kpiResponse{
		ProjectsByStatus: projects,
		UsersByStatus:    users,
		OpenTasks:        openTasks,
		OverdueRFIs:      overdueRFIs,
		GeneratedAt:      time.Now().UTC(),
	}

	if payload, err := json.Marshal(kpis); err == nil {
		if err := h.cache.Set(r.Context(), key, payload, h.ttl); err != nil {
			slog.Warn("kpi cache write failed", "error", err)
		}
	}

	response.JSON(w, kpis)
}
