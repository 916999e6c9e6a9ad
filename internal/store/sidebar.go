package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const sidebarCols = `id, role_name, tenant_id, config, version, updated_by, created_at, updated_at`

func scanSidebarConfig(row pgx.Row) (*models.SidebarConfig, error) {
	var sc models.SidebarConfig
	err := row.Scan(&sc.ID, &sc.RoleName, &sc.TenantID, &sc.Config, &sc.Version,
		&sc.UpdatedBy, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *PostgresStore) GetSidebarConfig(ctx context.Context, roleName string, tenantID *uuid.UUID) (*models.SidebarConfig, error) {
	sc, err := scanSidebarConfig(s.pool.QueryRow(ctx,
		`SELECT `+sidebarCols+` FROM sidebar_configs
		 WHERE role_name = $1 AND tenant_id IS NOT DISTINCT FROM $2`, roleName, tenantID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get sidebar config: %w", err)
	}
	return sc, err
}

func (s *PostgresStore) ResolveSidebarConfig(ctx context.Context, roleName string, tenantID uuid.UUID) (*models.SidebarConfig, error) {
	// Tenant override wins; NULLS LAST puts the global default second.
	sc, err := scanSidebarConfig(s.pool.QueryRow(ctx,
		`SELECT `+sidebarCols+` FROM sidebar_configs
		 WHERE role_name = $1 AND (tenant_id = $2 OR tenant_id IS NULL)
		 ORDER BY tenant_id NULLS LAST LIMIT 1`, roleName, tenantID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("resolve sidebar config: %w", err)
	}
	return sc, err
}

func (s *PostgresStore) UpsertSidebarConfig(ctx context.Context, c *models.SidebarConfig) (*models.SidebarConfig, error) {
	if c.Config == nil {
		c.Config = map[string]any{}
	}
	sc, err := scanSidebarConfig(s.pool.QueryRow(ctx,
		`INSERT INTO sidebar_configs (id, role_name, tenant_id, config, version, updated_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 1, $5, NOW(), NOW())
		 ON CONFLICT (role_name, COALESCE(tenant_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE SET
		   config = EXCLUDED.config,
		   version = sidebar_configs.version + 1,
		   updated_by = EXCLUDED.updated_by,
		   updated_at = NOW()
		 RETURNING `+sidebarCols,
		c.ID, c.RoleName, c.TenantID, c.Config, c.UpdatedBy))
	if err != nil {
		return nil, fmt.Errorf("upsert sidebar config: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) DeleteSidebarConfig(ctx context.Context, roleName string, tenantID *uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sidebar_configs WHERE role_name = $1 AND tenant_id IS NOT DISTINCT FROM $2`,
		roleName, tenantID)
	if err != nil {
		return fmt.Errorf("delete sidebar config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSidebarConfigs(ctx context.Context, tenant *uuid.UUID) ([]*models.SidebarConfig, error) {
	// Scoped admins see their tenant's overrides plus the global defaults.
	query := `SELECT ` + sidebarCols + ` FROM sidebar_configs ORDER BY role_name, tenant_id NULLS FIRST`
	args := []any{}
	if tenant != nil {
		query = `SELECT ` + sidebarCols + ` FROM sidebar_configs
		 WHERE tenant_id = $1 OR tenant_id IS NULL ORDER BY role_name, tenant_id NULLS FIRST`
		args = append(args, *tenant)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sidebar configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.SidebarConfig
	for rows.Next() {
		sc, err := scanSidebarConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sidebar config: %w", err)
		}
		configs = append(configs, sc)
	}
	return configs, rows.Err()
}
