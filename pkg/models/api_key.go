package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey authenticates a caller and carries their authorization claims.
// Raw keys are shown once at creation; only the bcrypt hash is stored.
type APIKey struct {
	ID         uuid.UUID  `db:"id"           json:"id"`
	TenantID   uuid.UUID  `db:"tenant_id"    json:"tenant_id"`
	UserID     uuid.UUID  `db:"user_id"      json:"user_id"`
	Name       string     `db:"name"         json:"name"`
	KeyHash    string     `db:"key_hash"     json:"-"`
	KeyPrefix  string     `db:"key_prefix"   json:"key_prefix"`
	Role       string     `db:"role"         json:"role"`
	Scopes     []string   `db:"scopes"       json:"scopes"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at"   json:"-"`
	CreatedAt  time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"   json:"updated_at"`
}

// Actor is the authenticated identity attached to a request after the key
// is verified. All authorization decisions downstream read from this.
type Actor struct {
	KeyID    uuid.UUID
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
	Scopes   []string
}

// IsSuperAdmin reports whether the actor is exempt from tenant scoping.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// HasScope reports whether the actor's key carries the named scope.
func (a Actor) HasScope(scope string) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
