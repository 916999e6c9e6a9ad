// Package transfer implements CSV export and import for users, projects,
// and tasks. Exports stream page by page so a large tenant never has to be
// held in memory; imports validate per row and report failures without
// aborting the rest of the file.
package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// Column orders are part of the external contract: importers key off them.
var (
	UserExportHeader    = []string{"id", "email", "name", "role", "status", "mfa_enabled", "created_at"}
	ProjectExportHeader = []string{"id", "name", "code", "status", "created_at"}
	TaskExportHeader    = []string{"id", "project_id", "title", "status", "priority", "assignee_id", "due_date", "created_at"}
)

const exportPageSize = 100

// ExportStore is the slice of the store the exporter reads from.
type ExportStore interface {
	ListUsers(ctx context.Context, f store.UserFilter) ([]*models.User, int, error)
	ListProjects(ctx context.Context, f store.ProjectFilter) ([]*models.Project, int, error)
	ListTasks(ctx context.Context, f store.WorkItemFilter) ([]*models.Task, int, error)
}

// Exporter streams filtered entity listings as CSV.
type Exporter struct {
	store ExportStore
}

func NewExporter(s ExportStore) *Exporter {
	return &Exporter{store: s}
}

// ExportUsers writes every user matching the filter. Pagination fields on
// the filter are ignored; the exporter walks all pages itself.
func (e *Exporter) ExportUsers(ctx context.Context, w io.Writer, f store.UserFilter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UserExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	f.PerPage = exportPageSize
	for page := 1; ; page++ {
		f.Page = page
		users, total, err := e.store.ListUsers(ctx, f)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		for _, u := range users {
			row := []string{
				u.ID.String(),
				u.Email,
				u.Name,
				u.Role,
				u.Status,
				strconv.FormatBool(u.MFAEnabled),
				u.CreatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		if page*exportPageSize >= total || len(users) == 0 {
			return nil
		}
	}
}

// ExportProjects writes every project matching the filter.
func (e *Exporter) ExportProjects(ctx context.Context, w io.Writer, f store.ProjectFilter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ProjectExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	f.PerPage = exportPageSize
	for page := 1; ; page++ {
		f.Page = page
		projects, total, err := e.store.ListProjects(ctx, f)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		for _, p := range projects {
			row := []string{
				p.ID.String(),
				p.Name,
				p.Code,
				p.Status,
				p.CreatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		if page*exportPageSize >= total || len(projects) == 0 {
			return nil
		}
	}
}

// ExportTasks writes every task matching the filter.
func (e *Exporter) ExportTasks(ctx context.Context, w io.Writer, f store.WorkItemFilter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TaskExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	f.PerPage = exportPageSize
	for page := 1; ; page++ {
		f.Page = page
		tasks, total, err := e.store.ListTasks(ctx, f)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		for _, t := range tasks {
			assignee := ""
			if t.AssigneeID != nil {
				assignee = t.AssigneeID.String()
			}
			due := ""
			if t.DueDate != nil {
				due = t.DueDate.Format(time.RFC3339)
			}
			row := []string{
				t.ID.String(),
				t.ProjectID.String(),
				t.Title,
				t.Status,
				t.Priority,
				assignee,
				due,
				t.CreatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		if page*exportPageSize >= total || len(tasks) == 0 {
			return nil
		}
	}
}
