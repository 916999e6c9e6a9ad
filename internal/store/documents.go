package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const documentCols = `id, project_id, tenant_id, name, path, version, uploaded_by, created_at, updated_at, deleted_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.TenantID, &d.Name, &d.Path, &d.Version,
		&d.UploadedBy, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, d *models.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, project_id, tenant_id, name, path, version, uploaded_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.ProjectID, d.TenantID, d.Name, d.Path, d.Version, d.UploadedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Document, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	d, err := scanDocument(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM documents WHERE %s AND id = $%d`, documentCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, err
}

func (s *PostgresStore) ListDocuments(ctx context.Context, f DocumentFilter) ([]*models.Document, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("project_id", f.ProjectID)
	c.search(f.Search, "name")

	allowed := map[string]bool{"name": true, "version": true, "created_at": true}
	return listPage(ctx, s.pool, "documents", documentCols, &c, allowed, f.ListParams, scanDocument)
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, d *models.Document, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, d.Name, d.Path, d.Version, d.ID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE documents SET name = $%d, path = $%d, version = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, c.where(), n+3),
		args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "documents", id, tenant)
}

func (s *PostgresStore) RestoreDocument(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "documents", id, tenant)
}
