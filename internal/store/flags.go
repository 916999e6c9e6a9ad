package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// --- Feature flags ---

func scanFeatureFlag(row pgx.Row) (*models.FeatureFlag, error) {
	var f models.FeatureFlag
	err := row.Scan(&f.Key, &f.Description, &f.DefaultEnabled, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *PostgresStore) ListFeatureFlags(ctx context.Context) ([]*models.FeatureFlag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, description, default_enabled, created_at, updated_at FROM feature_flags ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list feature flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.FeatureFlag
	for rows.Next() {
		f, err := scanFeatureFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature flag: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

func (s *PostgresStore) GetFeatureFlag(ctx context.Context, key string) (*models.FeatureFlag, error) {
	f, err := scanFeatureFlag(s.pool.QueryRow(ctx,
		`SELECT key, description, default_enabled, created_at, updated_at FROM feature_flags WHERE key = $1`, key))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get feature flag: %w", err)
	}
	return f, err
}

func (s *PostgresStore) UpsertFeatureFlag(ctx context.Context, f *models.FeatureFlag) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feature_flags (key, description, default_enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 ON CONFLICT (key) DO UPDATE SET
		   description = EXCLUDED.description,
		   default_enabled = EXCLUDED.default_enabled,
		   updated_at = NOW()`,
		f.Key, f.Description, f.DefaultEnabled)
	if err != nil {
		return fmt.Errorf("upsert feature flag: %w", err)
	}
	return nil
}

// GetFlagOverrides returns the tenant and user overrides relevant to one
// resolution, at most one of each.
func (s *PostgresStore) GetFlagOverrides(ctx context.Context, key string, tenantID, userID uuid.UUID) ([]*models.FlagOverride, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, flag_key, tenant_id, user_id, enabled, created_at, updated_at
		 FROM flag_overrides WHERE flag_key = $1 AND (tenant_id = $2 OR user_id = $3)`,
		key, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("get flag overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*models.FlagOverride
	for rows.Next() {
		var o models.FlagOverride
		if err := rows.Scan(&o.ID, &o.FlagKey, &o.TenantID, &o.UserID, &o.Enabled,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan flag override: %w", err)
		}
		overrides = append(overrides, &o)
	}
	return overrides, rows.Err()
}

func (s *PostgresStore) SetFlagOverride(ctx context.Context, o *models.FlagOverride) error {
	var err error
	if o.TenantID != nil {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO flag_overrides (id, flag_key, tenant_id, enabled, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 ON CONFLICT (flag_key, tenant_id) WHERE tenant_id IS NOT NULL
			 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()`,
			o.ID, o.FlagKey, o.TenantID, o.Enabled)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO flag_overrides (id, flag_key, user_id, enabled, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 ON CONFLICT (flag_key, user_id) WHERE user_id IS NOT NULL
			 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()`,
			o.ID, o.FlagKey, o.UserID, o.Enabled)
	}
	if err != nil {
		return fmt.Errorf("set flag override: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearFlagOverride(ctx context.Context, key string, tenantID, userID *uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM flag_overrides WHERE flag_key = $1
		 AND tenant_id IS NOT DISTINCT FROM $2 AND user_id IS NOT DISTINCT FROM $3`,
		key, tenantID, userID)
	if err != nil {
		return fmt.Errorf("clear flag override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Module readiness ---

func (s *PostgresStore) ListReadinessItems(ctx context.Context, tenantID uuid.UUID, module string) ([]*models.ReadinessItem, error) {
	var c conditions
	c.clauses = append(c.clauses, "tenant_id = $1")
	c.args = append(c.args, tenantID)
	c.eq("module", module)

	rows, err := s.pool.Query(ctx,
		`SELECT tenant_id, module, item_key, completed, updated_at FROM module_readiness WHERE `+c.where()+
			` ORDER BY module, item_key`, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list readiness items: %w", err)
	}
	defer rows.Close()

	var items []*models.ReadinessItem
	for rows.Next() {
		var it models.ReadinessItem
		if err := rows.Scan(&it.TenantID, &it.Module, &it.ItemKey, &it.Completed, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan readiness item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) SetReadinessItem(ctx context.Context, item *models.ReadinessItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO module_readiness (tenant_id, module, item_key, completed, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (tenant_id, module, item_key) DO UPDATE SET
		   completed = EXCLUDED.completed, updated_at = NOW()`,
		item.TenantID, item.Module, item.ItemKey, item.Completed)
	if err != nil {
		return fmt.Errorf("set readiness item: %w", err)
	}
	return nil
}
