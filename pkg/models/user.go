package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleOrgAdmin   = "org_admin"
	RoleMember     = "member"
)

const (
	UserStatusInvited  = "invited"
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User belongs to exactly one tenant. Super admins are the only actors
// exempt from tenant scoping.
type User struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	Email      string     `db:"email"       json:"email"`
	Name       string     `db:"name"        json:"name"`
	Role       string     `db:"role"        json:"role"`
	Status     string     `db:"status"      json:"status"`
	MFAEnabled bool       `db:"mfa_enabled" json:"mfa_enabled"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"  json:"-"`
}

// ValidRole reports whether r is one of the known user roles.
func ValidRole(r string) bool {
	return r == RoleSuperAdmin || r == RoleOrgAdmin || r == RoleMember
}

// ValidUserStatus reports whether s is one of the known user statuses.
func ValidUserStatus(s string) bool {
	return s == UserStatusInvited || s == UserStatusActive || s == UserStatusDisabled
}
