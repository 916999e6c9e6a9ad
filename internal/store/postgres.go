package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Tenants ---

const tenantCols = `id, name, domain, plan, status, created_at, updated_at, deleted_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, domain, plan, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Domain, t.Plan, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, err
}

func (s *PostgresStore) ListTenants(ctx context.Context, f TenantFilter) ([]*models.Tenant, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.in("status", f.Status)
	c.eq("plan", f.Plan)
	c.search(f.Search, "name", "domain")

	allowed := map[string]bool{"name": true, "domain": true, "plan": true, "status": true, "created_at": true}
	return listPage(ctx, s.pool, "tenants", tenantCols, &c, allowed, f.ListParams, scanTenant)
}

func (s *PostgresStore) UpdateTenant(ctx context.Context, t *models.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, domain = $3, plan = $4, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`,
		t.ID, t.Name, t.Domain, t.Plan)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetTenantStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, status)
	if err != nil {
		return fmt.Errorf("set tenant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// listPage runs the shared COUNT + data query pair for a paginated listing.
// The two queries share the same WHERE clause so totals always match the
// page contents.
func listPage[T any](
	ctx context.Context,
	pool *pgxpool.Pool,
	table, cols string,
	c *conditions,
	allowedSort map[string]bool,
	p ListParams,
	scan func(pgx.Row) (*T, error),
) ([]*T, int, error) {
	where := c.where()

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+where, c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	limit, offset := clampPage(p)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s %s LIMIT $%d OFFSET $%d",
		cols, table, where, orderBy(allowedSort, p.SortBy, p.SortDir), c.nextArg(), c.nextArg()+1)
	args := append(c.args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
