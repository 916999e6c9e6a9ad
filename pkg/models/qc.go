package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	QcPlanStatusDraft    = "draft"
	QcPlanStatusApproved = "approved"
	QcPlanStatusRetired  = "retired"
)

const (
	InspectionStatusScheduled = "scheduled"
	InspectionStatusPassed    = "passed"
	InspectionStatusFailed    = "failed"
)

// QcPlan defines the quality checks to run against a project.
type QcPlan struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	ProjectID uuid.UUID  `db:"project_id" json:"project_id"`
	TenantID  uuid.UUID  `db:"tenant_id"  json:"tenant_id"`
	Name      string     `db:"name"       json:"name"`
	Status    string     `db:"status"     json:"status"`
	CreatorID uuid.UUID  `db:"creator_id" json:"creator_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// QcInspection is a single execution of a plan's checks on site.
type QcInspection struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	PlanID       uuid.UUID  `db:"plan_id"       json:"plan_id"`
	ProjectID    uuid.UUID  `db:"project_id"    json:"project_id"`
	TenantID     uuid.UUID  `db:"tenant_id"     json:"tenant_id"`
	Status       string     `db:"status"        json:"status"`
	Result       *string    `db:"result"        json:"result,omitempty"`
	InspectorID  *uuid.UUID `db:"inspector_id"  json:"inspector_id,omitempty"`
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"    json:"-"`
}
