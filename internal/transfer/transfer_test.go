package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/store"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeExportStore struct {
	users    []*models.User
	projects []*models.Project
	tasks    []*models.Task
}

func page[T any](items []*T, p, perPage int) []*T {
	start := (p - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (f *fakeExportStore) ListUsers(_ context.Context, flt store.UserFilter) ([]*models.User, int, error) {
	return page(f.users, flt.Page, flt.PerPage), len(f.users), nil
}

func (f *fakeExportStore) ListProjects(_ context.Context, flt store.ProjectFilter) ([]*models.Project, int, error) {
	return page(f.projects, flt.Page, flt.PerPage), len(f.projects), nil
}

func (f *fakeExportStore) ListTasks(_ context.Context, flt store.WorkItemFilter) ([]*models.Task, int, error) {
	return page(f.tasks, flt.Page, flt.PerPage), len(f.tasks), nil
}

type fakeUserStore struct {
	byEmail map[string]*models.User
	created []*models.User
	updated []*models.User
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, _ uuid.UUID, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) error {
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, u *models.User, _ *uuid.UUID) error {
	f.updated = append(f.updated, u)
	return nil
}

type fakeTaskStore struct {
	projects map[uuid.UUID]*models.Project
	created  []*models.Task
}

func (f *fakeTaskStore) GetProject(_ context.Context, id uuid.UUID, _ *uuid.UUID) (*models.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeTaskStore) CreateTask(_ context.Context, t *models.Task) error {
	f.created = append(f.created, t)
	return nil
}

// --- export ---

func TestExportUsersHeaderAndRows(t *testing.T) {
	users := make([]*models.User, 0, 150)
	for i := 0; i < 150; i++ {
		users = append(users, &models.User{
			ID:        uuid.New(),
			Email:     "user@example.com",
			Name:      "User",
			Role:      models.RoleMember,
			Status:    models.UserStatusActive,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}
	exp := NewExporter(&fakeExportStore{users: users})

	var buf bytes.Buffer
	require.NoError(t, exp.ExportUsers(context.Background(), &buf, store.UserFilter{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, UserExportHeader, records[0])
	assert.Len(t, records, 151) // header + all rows across pages
	assert.Equal(t, "user@example.com", records[1][1])
	assert.Equal(t, "false", records[1][5])
}

func TestExportTasksOptionalFields(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assignee := uuid.New()
	tasks := []*models.Task{
		{ID: uuid.New(), ProjectID: uuid.New(), Title: "with due", Status: models.TaskStatusOpen, Priority: "high", AssigneeID: &assignee, DueDate: &due},
		{ID: uuid.New(), ProjectID: uuid.New(), Title: "bare", Status: models.TaskStatusOpen, Priority: "low"},
	}
	exp := NewExporter(&fakeExportStore{tasks: tasks})

	var buf bytes.Buffer
	require.NoError(t, exp.ExportTasks(context.Background(), &buf, store.WorkItemFilter{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, assignee.String(), records[1][5])
	assert.Equal(t, "2026-03-01T00:00:00Z", records[1][6])
	assert.Equal(t, "", records[2][5])
	assert.Equal(t, "", records[2][6])
}

func TestExportEmptyResultStillWritesHeader(t *testing.T) {
	exp := NewExporter(&fakeExportStore{})

	var buf bytes.Buffer
	require.NoError(t, exp.ExportProjects(context.Background(), &buf, store.ProjectFilter{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ProjectExportHeader, records[0])
}

// --- import ---

func TestImportUsersHeaderMismatch(t *testing.T) {
	s := &fakeUserStore{byEmail: map[string]*models.User{}}
	_, err := ImportUsers(context.Background(), s, strings.NewReader("email,name\n"), uuid.New(), ModeInsert)
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestImportUsersMixedRows(t *testing.T) {
	s := &fakeUserStore{byEmail: map[string]*models.User{}}
	csvData := "email,name,role,status\n" +
		"alice@acme.test,Alice,member,active\n" +
		"not-an-email,Bob,member,active\n" +
		"carol@acme.test,Carol,super_admin,active\n" +
		"dave@acme.test,Dave,org_admin,invited\n"

	result, err := ImportUsers(context.Background(), s, strings.NewReader(csvData), uuid.New(), ModeInsert)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "email")
	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Message, "role")
	assert.Len(t, s.created, 2)
}

func TestImportUsersInsertRejectsExisting(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "alice@acme.test", Name: "Old"}
	s := &fakeUserStore{byEmail: map[string]*models.User{"alice@acme.test": existing}}
	csvData := "email,name,role,status\nalice@acme.test,Alice,member,active\n"

	result, err := ImportUsers(context.Background(), s, strings.NewReader(csvData), uuid.New(), ModeInsert)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0].Message, "already exists")
	assert.Empty(t, s.created)
}

func TestImportUsersUpsertUpdatesExisting(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "alice@acme.test", Name: "Old", Role: models.RoleMember, Status: models.UserStatusInvited}
	s := &fakeUserStore{byEmail: map[string]*models.User{"alice@acme.test": existing}}
	csvData := "email,name,role,status\nalice@acme.test,Alice,org_admin,active\n"

	result, err := ImportUsers(context.Background(), s, strings.NewReader(csvData), uuid.New(), ModeUpsert)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, s.updated, 1)
	assert.Equal(t, "Alice", s.updated[0].Name)
	assert.Equal(t, models.RoleOrgAdmin, s.updated[0].Role)
}

func TestImportUsersUnknownMode(t *testing.T) {
	_, err := ImportUsers(context.Background(), &fakeUserStore{}, strings.NewReader(""), uuid.New(), "replace")
	assert.Error(t, err)
}

func TestImportTasks(t *testing.T) {
	project := &models.Project{ID: uuid.New(), Status: models.ProjectStatusActive}
	s := &fakeTaskStore{projects: map[uuid.UUID]*models.Project{project.ID: project}}
	creator := uuid.New()

	csvData := "project_id,title,status,priority,assignee_id,due_date\n" +
		project.ID.String() + ",Pour foundation,open,high,,2026-03-01\n" +
		uuid.NewString() + ",Orphan task,open,low,,\n" +
		project.ID.String() + ",Bad status,nonsense,low,,\n"

	result, err := ImportTasks(context.Background(), s, strings.NewReader(csvData), uuid.New(), creator, ModeInsert)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, s.created, 1)
	assert.Equal(t, "Pour foundation", s.created[0].Title)
	assert.Equal(t, creator, s.created[0].CreatorID)
	require.NotNil(t, s.created[0].DueDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *s.created[0].DueDate)
}
