package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureFlag is the global definition and default state of a flag.
type FeatureFlag struct {
	Key            string    `db:"key"             json:"key"`
	Description    string    `db:"description"     json:"description"`
	DefaultEnabled bool      `db:"default_enabled" json:"default_enabled"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}

// FlagOverride pins a flag's state for a tenant or a single user.
// Exactly one of TenantID/UserID is set; a user override beats a tenant
// override, which beats the global default.
type FlagOverride struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	FlagKey   string     `db:"flag_key"   json:"flag_key"`
	TenantID  *uuid.UUID `db:"tenant_id"  json:"tenant_id,omitempty"`
	UserID    *uuid.UUID `db:"user_id"    json:"user_id,omitempty"`
	Enabled   bool       `db:"enabled"    json:"enabled"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ReadinessItem is one tenant's completion state for a checklist item.
type ReadinessItem struct {
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Module    string    `db:"module"    json:"module"`
	ItemKey   string    `db:"item_key"  json:"item_key"`
	Completed bool      `db:"completed" json:"completed"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
