package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"worklog/apperr"
	"worklog/models"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	db *gorm.DB

	// codeMu serializes next-code assignment within this process; the
	// primary key on projects.code catches cross-process races.
	codeMu sync.Mutex
}

var _ Store = (*Gorm)(nil)

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrConflict
	default:
		return err
	}
}

func (g *Gorm) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (g *Gorm) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).Where("name = ?", name).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (g *Gorm) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := g.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (g *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	return translate(g.db.WithContext(ctx).Create(user).Error)
}

func (g *Gorm) UpdateUser(ctx context.Context, user *models.User) error {
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Select("Name", "PasswordHash", "IsAdmin", "IsManager").Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteUser(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := g.db.WithContext(ctx).Preload("Users").First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (g *Gorm) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := g.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, translate(err)
	}
	return roles, nil
}

func (g *Gorm) CreateRole(ctx context.Context, role *models.Role) error {
	return translate(g.db.WithContext(ctx).Create(role).Error)
}

func (g *Gorm) DeleteRole(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.Role{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) AddRoleMember(ctx context.Context, roleID, userID uint) error {
	role, err := g.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	user, err := g.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, member := range role.Users {
		if member.ID == userID {
			return apperr.Conflict("role assignment")
		}
	}
	return translate(g.db.WithContext(ctx).Model(role).Association("Users").Append(user))
}

func (g *Gorm) RemoveRoleMember(ctx context.Context, roleID, userID uint) error {
	role, err := g.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	user, err := g.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	assigned := false
	for _, member := range role.Users {
		if member.ID == userID {
			assigned = true
			break
		}
	}
	if !assigned {
		return apperr.NotFound("role assignment")
	}
	return translate(g.db.WithContext(ctx).Model(role).Association("Users").Delete(user))
}

func (g *Gorm) GetProject(ctx context.Context, code string) (*models.Project, error) {
	var project models.Project
	if err := g.db.WithContext(ctx).Where("code = ?", code).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (g *Gorm) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := g.db.WithContext(ctx).Order("CAST(code AS INTEGER)").Find(&projects).Error; err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

func (g *Gorm) CreateProject(ctx context.Context, project *models.Project) error {
	g.codeMu.Lock()
	defer g.codeMu.Unlock()
	var max int
	err := g.db.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(CAST(code AS INTEGER)), 0) FROM projects").
		Scan(&max).Error
	if err != nil {
		return translate(err)
	}
	project.Code = formatCode(max + 1)
	return translate(g.db.WithContext(ctx).Create(project).Error)
}

func (g *Gorm) UpdateProject(ctx context.Context, project *models.Project) error {
	res := g.db.WithContext(ctx).Model(&models.Project{}).Where("code = ?", project.Code).
		Select("Name", "IsActive").Updates(project)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteProject(ctx context.Context, code string) error {
	res := g.db.WithContext(ctx).Where("code = ?", code).Delete(&models.Project{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := g.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (g *Gorm) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := g.db.WithContext(ctx).Model(&models.Task{})
	if filter.ProjectCode != nil {
		query = query.Where("project_code = ?", *filter.ProjectCode)
	}
	if filter.RoleID != nil {
		query = query.Where("role_id = ?", *filter.RoleID)
	}
	if filter.UserID != nil {
		query = query.Where("role_id IN (SELECT role_id FROM user_roles WHERE user_id = ?)", *filter.UserID)
	}
	var tasks []models.Task
	if err := query.Order("id").Find(&tasks).Error; err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

func (g *Gorm) CreateTask(ctx context.Context, task *models.Task) error {
	return translate(g.db.WithContext(ctx).Create(task).Error)
}

func (g *Gorm) UpdateTask(ctx context.Context, task *models.Task) error {
	res := g.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", task.ID).
		Select("Name", "ProjectCode", "RoleID", "IsActive").Updates(task)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteTask(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) GetEntry(ctx context.Context, id uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := g.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (g *Gorm) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.TimeEntry, error) {
	query := g.db.WithContext(ctx).Model(&models.TimeEntry{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Since != nil {
		query = query.Where("date >= ?", models.DateOf(*filter.Since))
	}
	if filter.Date != nil {
		query = query.Where("date = ?", models.DateOf(*filter.Date))
	}
	if filter.Weekday != nil {
		// Postgres DOW numbers Sunday 0, matching time.Weekday.
		query = query.Where("EXTRACT(DOW FROM date) = ?", int(*filter.Weekday))
	}
	var entries []models.TimeEntry
	if err := query.Order("id").Find(&entries).Error; err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (g *Gorm) ListEntriesByTask(ctx context.Context, taskID uint) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	if err := g.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id").Find(&entries).Error; err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (g *Gorm) SumForDay(ctx context.Context, userID uint, date time.Time, excludeID uint) (time.Duration, error) {
	query := g.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Where("user_id = ? AND date = ?", userID, models.DateOf(date))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var total int64
	if err := query.Select("COALESCE(SUM(duration), 0)").Scan(&total).Error; err != nil {
		return 0, translate(err)
	}
	return time.Duration(total), nil
}

func (g *Gorm) CreateEntry(ctx context.Context, entry *models.TimeEntry) error {
	return translate(g.db.WithContext(ctx).Create(entry).Error)
}

func (g *Gorm) UpdateEntry(ctx context.Context, entry *models.TimeEntry) error {
	res := g.db.WithContext(ctx).Model(&models.TimeEntry{}).Where("id = ?", entry.ID).
		Select("Date", "Duration", "Description", "TaskID").Updates(entry)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteEntry(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.TimeEntry{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (g *Gorm) MaxEntryID(ctx context.Context) (uint, error) {
	var max uint
	err := g.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	if err != nil {
		return 0, translate(err)
	}
	return max, nil
}
