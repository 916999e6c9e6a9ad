package middleware

import (
	"context"
	"net/http"

	"github.com/sitedeskhq/sitedesk/pkg/models"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	keyPrefixKey contextKey = "key_prefix"
)

// SetActor attaches the authenticated actor to the context. Exported so
// handler tests can simulate an authenticated request.
func SetActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the actor set by the auth middleware.
func GetActor(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(actorKey).(models.Actor)
	return actor, ok
}

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}

// SetKeyPrefix is exported for rate-limit tests.
func SetKeyPrefix(ctx context.Context, prefix string) context.Context {
	return setKeyPrefix(ctx, prefix)
}
