package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sitedeskhq/sitedesk/internal/api/response"
	"github.com/sitedeskhq/sitedesk/internal/cache"
)

const defaultRequestsPerMinute = 60

// RateLimit provides fixed-window rate limiting via Redis.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	exportLimit    int
	exportWindow   time.Duration
}

func NewRateLimit(c cache.Cache, requestsPerMin, exportLimit int, exportWindow time.Duration) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{
		cache:          c,
		requestsPerMin: requestsPerMin,
		exportLimit:    exportLimit,
		exportWindow:   exportWindow,
	}
}

// Limit applies the general per-key limit based on the key prefix set by
// the auth middleware.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, ok := getKeyPrefix(r)
		if !ok {
			// No key prefix means auth middleware didn't run; pass through
			next.ServeHTTP(w, r)
			return
		}

		key := cache.RateLimitKey(prefix)
		count, err := rl.cache.IncrWithExpiry(r.Context(), key, 60*time.Second)
		if err != nil {
			// On Redis error, allow the request (fail open)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		resetTime := time.Now().Add(60 * time.Second).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", "60")
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LimitExport applies the tighter per-user export budget for the named
// entity. Exports are heavier than ordinary reads so they get their own
// counter on top of the general limit.
func (rl *RateLimit) LimitExport(entity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := cache.ExportLimitKey(actor.UserID, entity)
			count, err := rl.cache.IncrWithExpiry(r.Context(), key, rl.exportWindow)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(rl.exportLimit) {
				retryAfter := int(rl.exportWindow.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.Error(w, http.StatusTooManyRequests,
					"RATE_LIMIT_EXCEEDED", "Export limit reached, try again later", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
