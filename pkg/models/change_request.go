package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChangeRequestStatusProposed = "proposed"
	ChangeRequestStatusApproved = "approved"
	ChangeRequestStatusRejected = "rejected"
	ChangeRequestStatusApplied  = "applied"
)

// ChangeRequest tracks a proposed deviation from a project's agreed scope.
type ChangeRequest struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	ProjectID uuid.UUID  `db:"project_id" json:"project_id"`
	TenantID  uuid.UUID  `db:"tenant_id"  json:"tenant_id"`
	Title     string     `db:"title"      json:"title"`
	Status    string     `db:"status"     json:"status"`
	Impact    string     `db:"impact"     json:"impact"`
	CreatorID uuid.UUID  `db:"creator_id" json:"creator_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}
