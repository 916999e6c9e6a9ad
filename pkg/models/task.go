package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusOpen       = "open"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task is a unit of work within a project.
type Task struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	ProjectID  uuid.UUID  `db:"project_id"  json:"project_id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	Title      string     `db:"title"       json:"title"`
	Status     string     `db:"status"      json:"status"`
	Priority   string     `db:"priority"    json:"priority"`
	AssigneeID *uuid.UUID `db:"assignee_id" json:"assignee_id,omitempty"`
	CreatorID  uuid.UUID  `db:"creator_id"  json:"creator_id"`
	DueDate    *time.Time `db:"due_date"    json:"due_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"  json:"-"`
}

// ValidTaskStatus reports whether s is one of the known task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}
