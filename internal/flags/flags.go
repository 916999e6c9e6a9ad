// Package flags resolves feature flag state and module readiness.
package flags

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// Service resolves feature flags through the three-level override chain
// and computes module readiness checklists.
type Service struct {
	store store.Store
}

// NewService creates a flag resolution service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Resolution is the outcome of a flag lookup, including which level decided it.
type Resolution struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
	Source  string `json:"source"` // "default", "tenant", or "user"
}

// Resolve looks up a flag for a user within a tenant. Global default is the
// base; a tenant override beats it; a user override beats both.
func (s *Service) Resolve(ctx context.Context, key string, tenantID, userID uuid.UUID) (*Resolution, error) {
	flag, err := s.store.GetFeatureFlag(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve flag %q: %w", key, err)
	}

	res := &Resolution{Key: key, Enabled: flag.DefaultEnabled, Source: "default"}

	overrides, err := s.store.GetFlagOverrides(ctx, key, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve flag %q: %w", key, err)
	}

	// Apply tenant first so a user override applied second wins.
	for _, o := range overrides {
		if o.TenantID != nil && *o.TenantID == tenantID {
			res.Enabled = o.Enabled
			res.Source = "tenant"
		}
	}
	for _, o := range overrides {
		if o.UserID != nil && *o.UserID == userID {
			res.Enabled = o.Enabled
			res.Source = "user"
		}
	}
	return res, nil
}

// ResolveStatic applies the override chain to already-fetched data. Used by
// tests and bulk resolution paths that batch their own queries.
func ResolveStatic(flag *models.FeatureFlag, overrides []*models.FlagOverride, tenantID, userID uuid.UUID) Resolution {
	res := Resolution{Key: flag.Key, Enabled: flag.DefaultEnabled, Source: "default"}
	for _, o := range overrides {
		if o.TenantID != nil && *o.TenantID == tenantID {
			res.Enabled = o.Enabled
			res.Source = "tenant"
		}
	}
	for _, o := range overrides {
		if o.UserID != nil && *o.UserID == userID {
			res.Enabled = o.Enabled
			res.Source = "user"
		}
	}
	return res
}
