package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

const (
	ModeInsert = "insert"
	ModeUpsert = "upsert"
)

// Import templates. The uploaded file's header must match exactly.
var (
	UserImportHeader = []string{"email", "name", "role", "status"}
	TaskImportHeader = []string{"project_id", "title", "status", "priority", "assignee_id", "due_date"}
)

// ErrHeaderMismatch rejects the whole file before any row is processed.
var ErrHeaderMismatch = errors.New("csv header does not match template")

// RowError reports a single failed row. Row numbers are 1-based and count
// the header, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes an import. Valid rows are committed even when other
// rows fail.
type Result struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
}

// UserImportStore is the slice of the store the user importer writes to.
type UserImportStore interface {
	GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User, tenant *uuid.UUID) error
}

// TaskImportStore is the slice of the store the task importer writes to.
type TaskImportStore interface {
	GetProject(ctx context.Context, id uuid.UUID, tenant *uuid.UUID) (*models.Project, error)
	CreateTask(ctx context.Context, t *models.Task) error
}

// ImportUsers reads the CSV from r and creates (or, in upsert mode,
// updates by email) users in the given tenant.
func ImportUsers(ctx context.Context, s UserImportStore, r io.Reader, tenantID uuid.UUID, mode string) (*Result, error) {
	if err := validMode(mode); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := checkHeader(cr, UserImportHeader); err != nil {
		return nil, err
	}

	result := &Result{}
	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Total++
			result.fail(rowNum, "malformed csv row")
			continue
		}
		result.Total++

		email := strings.TrimSpace(strings.ToLower(record[0]))
		name := strings.TrimSpace(record[1])
		role := strings.TrimSpace(record[2])
		status := strings.TrimSpace(record[3])

		if msg := validateUserRow(email, name, role, status); msg != "" {
			result.fail(rowNum, msg)
			continue
		}

		existing, err := s.GetUserByEmail(ctx, tenantID, email)
		switch {
		case err == nil:
			if mode == ModeInsert {
				result.fail(rowNum, fmt.Sprintf("user %s already exists", email))
				continue
			}
			existing.Name = name
			existing.Role = role
			existing.Status = status
			if err := s.UpdateUser(ctx, existing, &tenantID); err != nil {
				result.fail(rowNum, "failed to update user")
				continue
			}
		case errors.Is(err, store.ErrNotFound):
			now := time.Now().UTC()
			u := &models.User{
				ID:        uuid.New(),
				TenantID:  tenantID,
				Email:     email,
				Name:      name,
				Role:      role,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.CreateUser(ctx, u); err != nil {
				if errors.Is(err, store.ErrDuplicateKey) {
					result.fail(rowNum, fmt.Sprintf("user %s already exists", email))
				} else {
					result.fail(rowNum, "failed to create user")
				}
				continue
			}
		default:
			result.fail(rowNum, "failed to look up user")
			continue
		}

		result.Succeeded++
	}
	return result, nil
}

// ImportTasks reads the CSV from r and creates tasks in the given tenant.
// Each row's project must exist within the tenant scope.
func ImportTasks(ctx context.Context, s TaskImportStore, r io.Reader, tenantID uuid.UUID, creatorID uuid.UUID, mode string) (*Result, error) {
	if err := validMode(mode); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := checkHeader(cr, TaskImportHeader); err != nil {
		return nil, err
	}

	result := &Result{}
	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Total++
			result.fail(rowNum, "malformed csv row")
			continue
		}
		result.Total++

		projectID, err := uuid.Parse(strings.TrimSpace(record[0]))
		if err != nil {
			result.fail(rowNum, "project_id is not a valid uuid")
			continue
		}
		title := strings.TrimSpace(record[1])
		status := strings.TrimSpace(record[2])
		priority := strings.TrimSpace(record[3])

		if title == "" {
			result.fail(rowNum, "title is required")
			continue
		}
		if !models.ValidTaskStatus(status) {
			result.fail(rowNum, fmt.Sprintf("unknown status %q", status))
			continue
		}
		if priority == "" {
			priority = "medium"
		}

		var assigneeID *uuid.UUID
		if raw := strings.TrimSpace(record[4]); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				result.fail(rowNum, "assignee_id is not a valid uuid")
				continue
			}
			assigneeID = &id
		}

		var dueDate *time.Time
		if raw := strings.TrimSpace(record[5]); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				result.fail(rowNum, "due_date must be RFC3339 or YYYY-MM-DD")
				continue
			}
			dueDate = &t
		}

		if _, err := s.GetProject(ctx, projectID, &tenantID); err != nil {
			result.fail(rowNum, fmt.Sprintf("project %s not found", projectID))
			continue
		}

		now := time.Now().UTC()
		task := &models.Task{
			ID:         uuid.New(),
			ProjectID:  projectID,
			TenantID:   tenantID,
			Title:      title,
			Status:     status,
			Priority:   priority,
			AssigneeID: assigneeID,
			CreatorID:  creatorID,
			DueDate:    dueDate,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.CreateTask(ctx, task); err != nil {
			result.fail(rowNum, "failed to create task")
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (r *Result) fail(row int, message string) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message})
}

func validMode(mode string) error {
	if mode != ModeInsert && mode != ModeUpsert {
		return fmt.Errorf("unknown import mode %q", mode)
	}
	return nil
}

func checkHeader(cr *csv.Reader, want []string) error {
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHeaderMismatch, err)
	}
	if len(header) != len(want) {
		return ErrHeaderMismatch
	}
	for i := range want {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want[i]) {
			return ErrHeaderMismatch
		}
	}
	return nil
}

func validateUserRow(email, name, role, status string) string {
	if email == "" || !strings.Contains(email, "@") {
		return "email is invalid"
	}
	if name == "" {
		return "name is required"
	}
	// Imports cannot mint platform operators.
	if role == models.RoleSuperAdmin || !models.ValidRole(role) {
		return fmt.Sprintf("unknown role %q", role)
	}
	if !models.ValidUserStatus(status) {
		return fmt.Sprintf("unknown status %q", status)
	}
	return ""
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
