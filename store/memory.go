package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"worklog/apperr"
	"worklog/models"
)

// Memory is a mutex-guarded in-memory Store.
type Memory struct {
	mu sync.RWMutex

	users    map[uint]models.User
	roles    map[uint]models.Role
	projects map[string]models.Project
	tasks    map[uint]models.Task
	entries  map[uint]models.TimeEntry

	// members[roleID] holds the role's user ids.
	members map[uint]map[uint]struct{}

	nextUserID uint
	nextRoleID uint
	nextTaskID uint
	nextCode   int
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uint]models.User),
		roles:    make(map[uint]models.Role),
		projects: make(map[string]models.Project),
		tasks:    make(map[uint]models.Task),
		entries:  make(map[uint]models.TimeEntry),
		members:  make(map[uint]map[uint]struct{}),
	}
}

func (m *Memory) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Name == name {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == user.Name {
			return apperr.Conflict("user name " + user.Name)
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return apperr.ErrNotFound
	}
	for _, u := range m.users {
		if u.Name == user.Name && u.ID != user.ID {
			return apperr.Conflict("user name " + user.Name)
		}
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.users, id)
	for _, members := range m.members {
		delete(members, id)
	}
	return nil
}

func (m *Memory) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	for uid := range m.members[id] {
		r.Users = append(r.Users, m.users[uid])
	}
	sort.Slice(r.Users, func(i, j int) bool { return r.Users[i].ID < r.Users[j].ID })
	return &r, nil
}

func (m *Memory) ListRoles(ctx context.Context) ([]models.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateRole(ctx context.Context, role *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == role.Name {
			return apperr.Conflict("role name " + role.Name)
		}
	}
	m.nextRoleID++
	role.ID = m.nextRoleID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	m.roles[role.ID] = *role
	m.members[role.ID] = make(map[uint]struct{})
	return nil
}

func (m *Memory) DeleteRole(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.members, id)
	return nil
}

func (m *Memory) AddRoleMember(ctx context.Context, roleID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return apperr.ErrNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return apperr.ErrNotFound
	}
	if _, ok := m.members[roleID][userID]; ok {
		return apperr.Conflict("role assignment")
	}
	m.members[roleID][userID] = struct{}{}
	return nil
}

func (m *Memory) RemoveRoleMember(ctx context.Context, roleID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return apperr.ErrNotFound
	}
	if _, ok := m.members[roleID][userID]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.members[roleID], userID)
	return nil
}

func (m *Memory) GetProject(ctx context.Context, code string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[code]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return numericCode(out[i].Code) < numericCode(out[j].Code) })
	return out, nil
}

func (m *Memory) CreateProject(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCode++
	project.Code = formatCode(m.nextCode)
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	m.projects[project.Code] = *project
	return nil
}

func (m *Memory) UpdateProject(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[project.Code]; !ok {
		return apperr.ErrNotFound
	}
	project.UpdatedAt = time.Now()
	m.projects[project.Code] = *project
	return nil
}

func (m *Memory) DeleteProject(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[code]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.projects, code)
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Task
	for _, t := range m.tasks {
		if filter.ProjectCode != nil && t.ProjectCode != *filter.ProjectCode {
			continue
		}
		if filter.RoleID != nil && (t.RoleID == nil || *t.RoleID != *filter.RoleID) {
			continue
		}
		if filter.UserID != nil {
			if t.RoleID == nil {
				continue
			}
			if _, ok := m.members[*t.RoleID][*filter.UserID]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTaskID++
	task.ID = m.nextTaskID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	m.tasks[task.ID] = *task
	return nil
}

func (m *Memory) UpdateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return apperr.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = *task
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) GetEntry(ctx context.Context, id uint) (*models.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.TimeEntry
	for _, e := range m.entries {
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		if filter.Since != nil && e.Date.Before(models.DateOf(*filter.Since)) {
			continue
		}
		if filter.Date != nil && !e.Date.Equal(models.DateOf(*filter.Date)) {
			continue
		}
		if filter.Weekday != nil && e.Date.Weekday() != *filter.Weekday {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListEntriesByTask(ctx context.Context, taskID uint) ([]models.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.TimeEntry
	for _, e := range m.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SumForDay(ctx context.Context, userID uint, date time.Time, excludeID uint) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := models.DateOf(date)
	var total time.Duration
	for _, e := range m.entries {
		if e.UserID != userID || !e.Date.Equal(day) {
			continue
		}
		if excludeID != 0 && e.ID == excludeID {
			continue
		}
		total += e.Duration.Duration()
	}
	return total, nil
}

func (m *Memory) CreateEntry(ctx context.Context, entry *models.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = *entry
	return nil
}

func (m *Memory) UpdateEntry(ctx context.Context, entry *models.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return apperr.ErrNotFound
	}
	entry.UpdatedAt = time.Now()
	m.entries[entry.ID] = *entry
	return nil
}

func (m *Memory) DeleteEntry(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) MaxEntryID(ctx context.Context) (uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var max uint
	for id := range m.entries {
		if id > max {
			max = id
		}
	}
	return max, nil
}
