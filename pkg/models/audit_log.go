package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of an administrative action. Rows are
// never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	TenantID  *uuid.UUID     `db:"tenant_id"  json:"tenant_id,omitempty"`
	UserID    uuid.UUID      `db:"user_id"    json:"user_id"`
	Action    string         `db:"action"     json:"action"`
	Entity    string         `db:"entity"     json:"entity"`
	EntityID  *uuid.UUID     `db:"entity_id"  json:"entity_id,omitempty"`
	IP        string         `db:"ip"         json:"ip"`
	Details   map[string]any `db:"details"    json:"details,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
