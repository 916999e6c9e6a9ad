// Package models contains shared data models used across the SiteDesk codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive   = "active"
	TenantStatusDisabled = "disabled"
)

// Tenant represents an isolated customer organization. Every other entity
// belongs to a tenant; a record from one tenant is never visible to another.
type Tenant struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	Name      string     `db:"name"       json:"name"`
	Domain    string     `db:"domain"     json:"domain"`
	Plan      string     `db:"plan"       json:"plan"`
	Status    string     `db:"status"     json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}
