package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a file attached to a project. The binary lives in the
// storage backend; only the path and metadata are stored here.
type Document struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	ProjectID  uuid.UUID  `db:"project_id"  json:"project_id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	Name       string     `db:"name"        json:"name"`
	Path       string     `db:"path"        json:"path"`
	Version    int        `db:"version"     json:"version"`
	UploadedBy uuid.UUID  `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"  json:"-"`
}
