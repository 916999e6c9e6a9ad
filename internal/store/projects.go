package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const projectCols = `id, tenant_id, name, code, status, settings, created_at, updated_at, deleted_at`

// forceOpsTransitions is the full set of allowed project status moves.
// Archived is terminal.
var forceOpsTransitions = map[string][]string{
	models.ProjectStatusActive:    {models.ProjectStatusFrozen, models.ProjectStatusArchived, models.ProjectStatusSuspended},
	models.ProjectStatusFrozen:    {models.ProjectStatusActive, models.ProjectStatusArchived},
	models.ProjectStatusSuspended: {models.ProjectStatusActive, models.ProjectStatusArchived},
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Code, &p.Status, &p.Settings,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, tenant_id, name, code, status, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.Name, p.Code, p.Status, p.Settings, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Project, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	p, err := scanProject(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM projects WHERE %s AND id = $%d`, projectCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, err
}

func (s *PostgresStore) ListProjects(ctx context.Context, f ProjectFilter) ([]*models.Project, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.in("status", f.Status)
	c.search(f.Search, "name", "code")
	c.gte("created_at", f.CreatedFrom)
	c.lte("created_at", f.CreatedTo)

	allowed := map[string]bool{"name": true, "code": true, "status": true, "created_at": true, "updated_at": true}
	return listPage(ctx, s.pool, "projects", projectCols, &c, allowed, f.ListParams, scanProject)
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p *models.Project, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, p.Name, p.Code, p.Settings, p.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE projects SET name = $%d, code = $%d, settings = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, c.where(), n+3),
		args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "projects", id, tenant)
}

func (s *PostgresStore) RestoreProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "projects", id, tenant)
}

// TransitionProject applies a force-ops status change. The row is locked for
// the duration of the transaction so concurrent force-ops on the same project
// serialize; the losing action sees the new status and fails validation.
func (s *PostgresStore) TransitionProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID, newStatus string, rec models.ForceOpsRecord) (*models.Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)

	p, err := scanProject(tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM projects WHERE %s AND id = $%d FOR UPDATE`,
			projectCols, c.where(), c.nextArg()), args...))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock project: %w", err)
	}

	valid := false
	for _, allowed := range forceOpsTransitions[p.Status] {
		if allowed == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, newStatus)
	}

	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	history, _ := p.Settings["force_ops"].([]any)
	p.Settings["force_ops"] = append(history, rec)
	p.Status = newStatus
	p.UpdatedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx,
		`UPDATE projects SET status = $2, settings = $3, updated_at = $4 WHERE id = $1`,
		p.ID, p.Status, p.Settings, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("transition project: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return p, nil
}
