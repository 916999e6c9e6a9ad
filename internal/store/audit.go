package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const auditCols = `id, tenant_id, user_id, action, entity, entity_id, ip, details, created_at`

func scanAuditLog(row pgx.Row) (*models.AuditLog, error) {
	var l models.AuditLog
	err := row.Scan(&l.ID, &l.TenantID, &l.UserID, &l.Action, &l.Entity, &l.EntityID,
		&l.IP, &l.Details, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PostgresStore) AppendAuditLog(ctx context.Context, l *models.AuditLog) error {
	if l.Details == nil {
		l.Details = map[string]any{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant_id, user_id, action, entity, entity_id, ip, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.TenantID, l.UserID, l.Action, l.Entity, l.EntityID, l.IP, l.Details, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditLogs(ctx context.Context, f AuditFilter) ([]*models.AuditLog, int, error) {
	var c conditions
	c.eqUUID("tenant_id", f.TenantID)
	c.eqUUID("user_id", f.UserID)
	c.eq("action", f.Action)
	c.eq("entity", f.Entity)
	c.gte("created_at", f.From)
	c.lte("created_at", f.To)

	allowed := map[string]bool{"action": true, "entity": true, "created_at": true}
	return listPage(ctx, s.pool, "audit_logs", auditCols, &c, allowed, f.ListParams, scanAuditLog)
}
