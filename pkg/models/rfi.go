package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RFIStatusOpen     = "open"
	RFIStatusAnswered = "answered"
	RFIStatusClosed   = "closed"
)

// SLA labels derived from an RFI's due date.
const (
	SLAOverdue = "overdue"
	SLAUrgent  = "urgent"
	SLANormal  = "normal"
)

// urgentWindow is how close to the due date an open RFI becomes urgent.
const urgentWindow = 48 * time.Hour

// RFI is a request for information raised against a project.
type RFI struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	ProjectID  uuid.UUID  `db:"project_id"  json:"project_id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	Subject    string     `db:"subject"     json:"subject"`
	Status     string     `db:"status"      json:"status"`
	AssigneeID *uuid.UUID `db:"assignee_id" json:"assignee_id,omitempty"`
	CreatorID  uuid.UUID  `db:"creator_id"  json:"creator_id"`
	DueDate    *time.Time `db:"due_date"    json:"due_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"  json:"-"`
}

// SLAStatus derives the prioritization label from the due date at time now.
// RFIs without a due date, and closed RFIs, are always normal.
func (r *RFI) SLAStatus(now time.Time) string {
	if r.DueDate == nil || r.Status == RFIStatusClosed {
		return SLANormal
	}
	if now.After(*r.DueDate) {
		return SLAOverdue
	}
	if r.DueDate.Sub(now) <= urgentWindow {
		return SLAUrgent
	}
	return SLANormal
}
