package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const userCols = `id, tenant_id, email, name, role, status, mfa_enabled, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.Status,
		&u.MFAEnabled, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, tenant_id, email, name, role, status, mfa_enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.TenantID, u.Email, u.Name, u.Role, u.Status, u.MFAEnabled, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.User, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)
	u, err := scanUser(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s AND id = $%d`, userCols, c.where(), c.nextArg()), args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE tenant_id = $1 AND email = $2 AND deleted_at IS NULL`,
		tenantID, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

func (s *PostgresStore) ListUsers(ctx context.Context, f UserFilter) ([]*models.User, int, error) {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", f.TenantID)
	c.eq("role", f.Role)
	c.in("status", f.Status)
	c.search(f.Search, "name", "email")
	c.gte("created_at", f.CreatedFrom)
	c.lte("created_at", f.CreatedTo)

	allowed := map[string]bool{"email": true, "name": true, "role": true, "status": true, "created_at": true}
	return listPage(ctx, s.pool, "users", userCols, &c, allowed, f.ListParams, scanUser)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	query := fmt.Sprintf(
		`UPDATE users SET name = $%d, role = $%d, status = $%d, mfa_enabled = $%d, updated_at = NOW()
		 WHERE %s AND id = $%d`, n, n+1, n+2, n+3, c.where(), n+4)
	args := append(c.args, u.Name, u.Role, u.Status, u.MFAEnabled, u.ID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetUserStatus(ctx context.Context, id uuid.UUID, tenant *uuid.UUID, status string) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	n := c.nextArg()
	args := append(c.args, status, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET status = $%d, updated_at = NOW() WHERE %s AND id = $%d`, n, c.where(), n+1),
		args...)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.softDelete(ctx, "users", id, tenant)
}

func (s *PostgresStore) RestoreUser(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) error {
	return s.restore(ctx, "users", id, tenant)
}

// softDelete marks a row deleted; already-deleted rows read as not found.
func (s *PostgresStore) softDelete(ctx context.Context, table string, id uuid.UUID, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE %s AND id = $%d`,
			table, c.where(), c.nextArg()),
		args...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) restore(ctx context.Context, table string, id uuid.UUID, tenant *uuid.UUID) error {
	var c conditions
	c.raw("deleted_at IS NOT NULL")
	c.eqUUID("tenant_id", tenant)
	args := append(c.args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = NULL, updated_at = NOW() WHERE %s AND id = $%d`,
			table, c.where(), c.nextArg()),
		args...)
	if err != nil {
		return fmt.Errorf("restore %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
