package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// workItemConditions builds the WHERE clause shared by project-scoped
// listings (tasks, RFIs, change requests, QC plans).
func workItemConditions(f WorkItemFilter, searchCols ...string) *conditions {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("project_id", f.ProjectID)
	c.in("status", f.Status)
	c.eqUUID("assignee_id", f.AssigneeID)
	c.search(f.Search, searchCols...)
	c.gte("due_date", f.DueFrom)
	c.lte("due_date", f.DueTo)
	return &c
}

// --- Tasks ---

const taskCols = `id, project_id, tenant_id, title, status, priority, assignee_id, creator_id, due_date, created_at, updated_at, deleted_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &t.Status, &t.Priority,
		&t.AssigneeID, &t.CreatorID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, tenant_id, title, status, priority, assignee_id, creator_id, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.ProjectID, t.TenantID, t.Title, t.Status, t.Priority, t.AssigneeID, t.CreatorID, t.DueDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Task, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	t, err := scanTask(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM tasks WHERE %s AND id = $%d`, taskCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, err
}

func (s *PostgresStore) ListTasks(ctx context.Context, f WorkItemFilter) ([]*models.Task, int, error) {
	c := workItemConditions(f, "title")
	allowed := map[string]bool{"title": true, "status": true, "priority": true, "due_date": true, "created_at": true}
	return listPage(ctx, s.pool, "tasks", taskCols, c, allowed, f.ListParams, scanTask)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t *models.Task, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, t.Title, t.Status, t.Priority, t.AssigneeID, t.DueDate, t.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE tasks SET title = $%d, status = $%d, priority = $%d, assignee_id = $%d, due_date = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, n+3, n+4, c.where(), n+5),
		args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "tasks", id, tenant)
}

func (s *PostgresStore) RestoreTask(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "tasks", id, tenant)
}

// --- RFIs ---

const rfiCols = `id, project_id, tenant_id, subject, status, assignee_id, creator_id, due_date, created_at, updated_at, deleted_at`

func scanRFI(row pgx.Row) (*models.RFI, error) {
	var r models.RFI
	err := row.Scan(&r.ID, &r.ProjectID, &r.TenantID, &r.Subject, &r.Status,
		&r.AssigneeID, &r.CreatorID, &r.DueDate, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) CreateRFI(ctx context.Context, r *models.RFI) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rfis (id, project_id, tenant_id, subject, status, assignee_id, creator_id, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.ProjectID, r.TenantID, r.Subject, r.Status, r.AssigneeID, r.CreatorID, r.DueDate, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create rfi: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.RFI, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	r, err := scanRFI(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM rfis WHERE %s AND id = $%d`, rfiCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get rfi: %w", err)
	}
	return r, err
}

func (s *PostgresStore) ListRFIs(ctx context.Context, f WorkItemFilter) ([]*models.RFI, int, error) {
	c := workItemConditions(f, "subject")
	allowed := map[string]bool{"subject": true, "status": true, "due_date": true, "created_at": true}
	return listPage(ctx, s.pool, "rfis", rfiCols, c, allowed, f.ListParams, scanRFI)
}

func (s *PostgresStore) UpdateRFI(ctx context.Context, r *models.RFI, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, r.Subject, r.Status, r.AssigneeID, r.DueDate, r.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE rfis SET subject = $%d, status = $%d, assignee_id = $%d, due_date = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, n+3, c.where(), n+4),
		args...)
	if err != nil {
		return fmt.Errorf("update rfi: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "rfis", id, tenant)
}

func (s *PostgresStore) RestoreRFI(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "rfis", id, tenant)
}

// --- Change requests ---

const changeRequestCols = `id, project_id, tenant_id, title, status, impact, creator_id, created_at, updated_at, deleted_at`

func scanChangeRequest(row pgx.Row) (*models.ChangeRequest, error) {
	var cr models.ChangeRequest
	err := row.Scan(&cr.ID, &cr.ProjectID, &cr.TenantID, &cr.Title, &cr.Status, &cr.Impact,
		&cr.CreatorID, &cr.CreatedAt, &cr.UpdatedAt, &cr.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (s *PostgresStore) CreateChangeRequest(ctx context.Context, cr *models.ChangeRequest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO change_requests (id, project_id, tenant_id, title, status, impact, creator_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		cr.ID, cr.ProjectID, cr.TenantID, cr.Title, cr.Status, cr.Impact, cr.CreatorID, cr.CreatedAt, cr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.ChangeRequest, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	cr, err := scanChangeRequest(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM change_requests WHERE %s AND id = $%d`, changeRequestCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get change request: %w", err)
	}
	return cr, err
}

func (s *PostgresStore) ListChangeRequests(ctx context.Context, f WorkItemFilter) ([]*models.ChangeRequest, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("project_id", f.ProjectID)
	c.in("status", f.Status)
	c.search(f.Search, "title")

	allowed := map[string]bool{"title": true, "status": true, "impact": true, "created_at": true}
	return listPage(ctx, s.pool, "change_requests", changeRequestCols, &c, allowed, f.ListParams, scanChangeRequest)
}

func (s *PostgresStore) UpdateChangeRequest(ctx context.Context, cr *models.ChangeRequest, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, cr.Title, cr.Status, cr.Impact, cr.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE change_requests SET title = $%d, status = $%d, impact = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, c.where(), n+3),
		args...)
	if err != nil {
		return fmt.Errorf("update change request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "change_requests", id, tenant)
}

func (s *PostgresStore) RestoreChangeRequest(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "change_requests", id, tenant)
}
