// Package store persists the directory entities and time entries. The
// gorm implementation backs normal operation; the memory implementation
// backs tests and DB-less runs.
package store

import (
	"context"
	"time"

	"worklog/models"
)

// TaskFilter narrows ListTasks. Set fields must all match. UserID
// matches tasks whose role the user is a member of.
type TaskFilter struct {
	ProjectCode *string
	RoleID      *uint
	UserID      *uint
}

// Store is the keyed-store surface consumed by the ledger and the
// handlers. Lookups fail with apperr.ErrNotFound, duplicate unique keys
// with apperr.ErrConflict.
type Store interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error

	GetRole(ctx context.Context, id uint) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id uint) error
	AddRoleMember(ctx context.Context, roleID, userID uint) error
	RemoveRoleMember(ctx context.Context, roleID, userID uint) error

	GetProject(ctx context.Context, code string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	// CreateProject assigns the next code: max numeric code + 1.
	CreateProject(ctx context.Context, project *models.Project) error
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, code string) error

	GetTask(ctx context.Context, id uint) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id uint) error

	GetEntry(ctx context.Context, id uint) (*models.TimeEntry, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeEntry, error)
	ListEntriesByTask(ctx context.Context, taskID uint) ([]models.TimeEntry, error)
	SumForDay(ctx context.Context, userID uint, date time.Time, excludeID uint) (time.Duration, error)
	CreateEntry(ctx context.Context, entry *models.TimeEntry) error
	UpdateEntry(ctx context.Context, entry *models.TimeEntry) error
	DeleteEntry(ctx context.Context, id uint) error
	MaxEntryID(ctx context.Context) (uint, error)
}
