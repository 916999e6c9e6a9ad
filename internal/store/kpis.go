package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// countByStatus runs a grouped count with optional tenant scoping.
func (s *PostgresStore) countByStatus(ctx context.Context, table string, tenant *uuid.UUID) (map[string]int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT status, COUNT(*) FROM %s WHERE %s GROUP BY status`, table, c.where()),
		c.args...)
	if err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", table, err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) CountProjectsByStatus(ctx context.Context, tenant *uuid.UUID) (map[string]int, error) {
	return s.countByStatus(ctx, "projects", tenant)
}

func (s *PostgresStore) CountUsersByStatus(ctx context.Context, tenant *uuid.UUID) (map[string]int, error) {
	return s.countByStatus(ctx, "users", tenant)
}

func (s *PostgresStore) CountOpenTasks(ctx context.Context, tenant *uuid.UUID) (int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.raw("status <> 'completed'")
	c.eqUUID("tenant_id", tenant)

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE `+c.where(), c.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountOverdueRFIs(ctx context.Context, tenant *uuid.UUID, now time.Time) (int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.raw("status <> 'closed'")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, now)

	var count int
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM rfis WHERE %s AND due_date IS NOT NULL AND due_date < $%d`, c.where(), n),
		args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count overdue rfis: %w", err)
	}
	return count, nil
}
