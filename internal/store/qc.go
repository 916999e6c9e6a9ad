package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const qcPlanCols = `id, project_id, tenant_id, name, status, creator_id, created_at, updated_at, deleted_at`

func scanQcPlan(row pgx.Row) (*models.QcPlan, error) {
	var p models.QcPlan
	err := row.Scan(&p.ID, &p.ProjectID, &p.TenantID, &p.Name, &p.Status, &p.CreatorID,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateQcPlan(ctx context.Context, p *models.QcPlan) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO qc_plans (id, project_id, tenant_id, name, status, creator_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ProjectID, p.TenantID, p.Name, p.Status, p.CreatorID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create qc plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.QcPlan, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	p, err := scanQcPlan(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM qc_plans WHERE %s AND id = $%d`, qcPlanCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get qc plan: %w", err)
	}
	return p, err
}

func (s *PostgresStore) ListQcPlans(ctx context.Context, f WorkItemFilter) ([]*models.QcPlan, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("project_id", f.ProjectID)
	c.in("status", f.Status)
	c.search(f.Search, "name")

	allowed := map[string]bool{"name": true, "status": true, "created_at": true}
	return listPage(ctx, s.pool, "qc_plans", qcPlanCols, &c, allowed, f.ListParams, scanQcPlan)
}

func (s *PostgresStore) UpdateQcPlan(ctx context.Context, p *models.QcPlan, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, p.Name, p.Status, p.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE qc_plans SET name = $%d, status = $%d, updated_at = NOW() WHERE %s AND id = $%d`,
			n, n+1, c.where(), n+2),
		args...)
	if err != nil {
		return fmt.Errorf("update qc plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "qc_plans", id, tenant)
}

func (s *PostgresStore) RestoreQcPlan(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "qc_plans", id, tenant)
}

// --- QC inspections ---

const qcInspectionCols = `id, plan_id, project_id, tenant_id, status, result, inspector_id, scheduled_for, created_at, updated_at, deleted_at`

func scanQcInspection(row pgx.Row) (*models.QcInspection, error) {
	var i models.QcInspection
	err := row.Scan(&i.ID, &i.PlanID, &i.ProjectID, &i.TenantID, &i.Status, &i.Result,
		&i.InspectorID, &i.ScheduledFor, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *PostgresStore) CreateQcInspection(ctx context.Context, i *models.QcInspection) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO qc_inspections (id, plan_id, project_id, tenant_id, status, result, inspector_id, scheduled_for, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		i.ID, i.PlanID, i.ProjectID, i.TenantID, i.Status, i.Result, i.InspectorID, i.ScheduledFor, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create qc inspection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.QcInspection, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	i, err := scanQcInspection(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM qc_inspections WHERE %s AND id = $%d`, qcInspectionCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get qc inspection: %w", err)
	}
	return i, err
}

func (s *PostgresStore) ListQcInspections(ctx context.Context, f InspectionFilter) ([]*models.QcInspection, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("project_id", f.ProjectID)
	c.eqUUID("plan_id", f.PlanID)
	c.in("status", f.Status)
	c.gte("scheduled_for", f.ScheduledFrom)
	c.lte("scheduled_for", f.ScheduledTo)

	allowed := map[string]bool{"status": true, "scheduled_for": true, "created_at": true}
	return listPage(ctx, s.pool, "qc_inspections", qcInspectionCols, &c, allowed, f.ListParams, scanQcInspection)
}

func (s *PostgresStore) UpdateQcInspection(ctx context.Context, i *models.QcInspection, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, i.Status, i.Result, i.InspectorID, i.ScheduledFor, i.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE qc_inspections SET status = $%d, result = $%d, inspector_id = $%d, scheduled_for = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, n+3, c.where(), n+4),
		args...)
	if err != nil {
		return fmt.Errorf("update qc inspection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "qc_inspections", id, tenant)
}

func (s *PostgresStore) RestoreQcInspection(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "qc_inspections", id, tenant)
}
