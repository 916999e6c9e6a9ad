package models

import (
	"time"

	"github.com/google/uuid"
)

// SidebarConfig stores the navigation layout served to a role. A row with a
// nil TenantID is the global default; a tenant-specific row overrides it.
// Version increments on every update so clients can detect stale layouts.
type SidebarConfig struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	RoleName  string         `db:"role_name"  json:"role_name"`
	TenantID  *uuid.UUID     `db:"tenant_id"  json:"tenant_id,omitempty"`
	Config    map[string]any `db:"config"     json:"config"`
	Version   int            `db:"version"    json:"version"`
	UpdatedBy uuid.UUID      `db:"updated_by" json:"updated_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
