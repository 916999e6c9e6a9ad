package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusFrozen    = "frozen"
	ProjectStatusArchived  = "archived"
	ProjectStatusSuspended = "suspended"
)

// Project is the top-level unit of work within a tenant. Status moves
// through the force-ops transitions (freeze/archive/suspend/reactivate);
// the history of those actions lives under the "force_ops" key of Settings.
type Project struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"  json:"tenant_id"`
	Name      string         `db:"name"       json:"name"`
	Code      string         `db:"code"       json:"code"`
	Status    string         `db:"status"     json:"status"`
	Settings  map[string]any `db:"settings"   json:"settings"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time     `db:"deleted_at" json:"-"`
}

// ForceOpsRecord is appended to a project's settings whenever an
// administrative override runs against it.
type ForceOpsRecord struct {
	Action  string    `json:"action"`
	ActorID uuid.UUID `json:"actor_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}
