package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sitedeskhq/sitedesk/internal/cache"
	"github.com/sitedeskhq/sitedesk/internal/store"
)

// NewHealthHandler reports liveness of the process and its dependencies.
// Degraded dependencies yield 503 so load balancers rotate the instance out.
func NewHealthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		deps := map[string]string{"postgres": "ok", "redis": "ok"}

		if err := s.Ping(ctx); err != nil {
			status = "degraded"
			deps["postgres"] = "unreachable"
		}
		if err := c.Ping(ctx); err != nil {
			status = "degraded"
			deps["redis"] = "unreachable"
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{"status": status, "dependencies": deps})
	}
}
