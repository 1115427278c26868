package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"worklog/auth"
	"worklog/config"
	"worklog/ledger"
	"worklog/middleware"
	"worklog/models"
	"worklog/store"
)

type testEnv struct {
	router chi.Router
	store  *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTIssuer:     "worklog",
		JWTAudience:   "worklog-api",
		JWTExpiration: time.Hour,
	}
	middleware.Configure(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	st := store.NewMemory()
	l := ledger.New(st, st, st, nil)
	return &testEnv{
		router: Router(cfg, st, l),
		store:  st,
	}
}

func (e *testEnv) createUser(t *testing.T, name, password string, admin bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(name, password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Name: name, PasswordHash: hash, IsAdmin: admin}
	if err := e.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := middleware.GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedTask(t *testing.T, active bool) *models.Task {
	t.Helper()
	ctx := context.Background()
	project := &models.Project{Name: "platform", IsActive: true}
	if err := e.store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	task := &models.Task{Name: "backend", ProjectCode: project.Code, IsActive: active}
	if err := e.store.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/register", "", map[string]string{"name": "alice", "password": "secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, "POST", "/register", "", map[string]string{"name": "alice", "password": "secret"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", rec.Code)
	}

	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "alice", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out["token"] == "" {
		t.Fatal("login returned no token")
	}

	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status %d, want 401", rec.Code)
	}
	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "nobody", "password": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: status %d, want 401", rec.Code)
	}

	// The issued token opens protected routes.
	rec = env.do(t, "GET", "/entries", out["token"], nil)
	if rec.Code != http.StatusOK {
		t.Errorf("entries with fresh token: status %d, want 200", rec.Code)
	}
}

func TestLoginVerifiesLegacyHash(t *testing.T) {
	env := newTestEnv(t)
	user := &models.User{Name: "olduser", PasswordHash: auth.GenHash("olduser", "secret")}
	if err := env.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := env.do(t, "POST", "/login", "", map[string]string{"name": "olduser", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("legacy-hash login: status %d, body %s", rec.Code, rec.Body)
	}
	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "olduser", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("legacy-hash bad password: status %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/entries", "/projects", "/tasks", "/users", "/roles"} {
		rec := env.do(t, "GET", path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d, want 401", path, rec.Code)
		}
	}
}

func TestEntryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, true)
	user := env.createUser(t, "alice", "secret", false)
	token := env.token(t, user)

	rec := env.do(t, "POST", "/entries", token, map[string]interface{}{
		"task_id":      task.ID,
		"date":         "2024-06-03",
		"duration_min": 1200, // 20h
		"description":  "long day",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry: status %d, body %s", rec.Code, rec.Body)
	}
	var entry models.TimeEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.UserID != user.ID {
		t.Errorf("entry user = %d, want caller %d", entry.UserID, user.ID)
	}

	// 20h + 5h breaks the quota.
	rec = env.do(t, "POST", "/entries", token, map[string]interface{}{
		"task_id": task.ID, "date": "2024-06-03", "duration_min": 300,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("quota violation: status %d, want 400", rec.Code)
	}

	// 20h + 4h lands exactly on the boundary.
	rec = env.do(t, "POST", "/entries", token, map[string]interface{}{
		"task_id": task.ID, "date": "2024-06-03", "duration_min": 240,
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("boundary entry: status %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/entries/%d", entry.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get entry: status %d", rec.Code)
	}

	rec = env.do(t, "PATCH", fmt.Sprintf("/entries/%d", entry.ID), token,
		map[string]interface{}{"description": "edited"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("patch entry: status %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, "DELETE", fmt.Sprintf("/entries/%d", entry.ID), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete entry: status %d", rec.Code)
	}
	rec = env.do(t, "DELETE", fmt.Sprintf("/entries/%d", entry.ID), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status %d, want 404", rec.Code)
	}
}

func TestEntryInactiveTaskRejected(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, false)
	user := env.createUser(t, "alice", "secret", false)

	rec := env.do(t, "POST", "/entries", env.token(t, user), map[string]interface{}{
		"task_id": task.ID, "duration_min": 60,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inactive task: status %d, want 400", rec.Code)
	}
}

func TestEntryOwnershipOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, true)
	owner := env.createUser(t, "alice", "secret", false)
	stranger := env.createUser(t, "bob", "secret", false)
	admin := env.createUser(t, "root", "secret", true)

	rec := env.do(t, "POST", "/entries", env.token(t, owner), map[string]interface{}{
		"task_id": task.ID, "duration_min": 60,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry: status %d", rec.Code)
	}
	var entry models.TimeEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}

	patch := map[string]interface{}{"description": "touched"}
	path := fmt.Sprintf("/entries/%d", entry.ID)

	rec = env.do(t, "PATCH", path, env.token(t, stranger), patch)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger patch: status %d, want 403", rec.Code)
	}
	rec = env.do(t, "PATCH", path, env.token(t, admin), patch)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin patch: status %d, want 204", rec.Code)
	}
	rec = env.do(t, "PATCH", path, env.token(t, owner), patch)
	if rec.Code != http.StatusNoContent {
		t.Errorf("owner patch: status %d, want 204", rec.Code)
	}
}

func TestAdminGateOnDirectories(t *testing.T) {
	env := newTestEnv(t)
	plain := env.createUser(t, "alice", "secret", false)
	admin := env.createUser(t, "root", "secret", true)

	newUser := map[string]interface{}{"name": "carol", "password": "secret"}
	rec := env.do(t, "POST", "/users", env.token(t, plain), newUser)
	if rec.Code != http.StatusForbidden {
		t.Errorf("plain user creates user: status %d, want 403", rec.Code)
	}
	rec = env.do(t, "POST", "/users", env.token(t, admin), newUser)
	if rec.Code != http.StatusCreated {
		t.Errorf("admin creates user: status %d, body %s", rec.Code, rec.Body)
	}

	newRole := map[string]interface{}{"name": "backend"}
	rec = env.do(t, "POST", "/roles", env.token(t, plain), newRole)
	if rec.Code != http.StatusForbidden {
		t.Errorf("plain user creates role: status %d, want 403", rec.Code)
	}
	rec = env.do(t, "POST", "/roles", env.token(t, admin), newRole)
	if rec.Code != http.StatusCreated {
		t.Errorf("admin creates role: status %d, body %s", rec.Code, rec.Body)
	}

	// Reads stay open to everyone authenticated.
	rec = env.do(t, "GET", "/users", env.token(t, plain), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("plain user lists users: status %d, want 200", rec.Code)
	}
}

func TestRoleMembershipOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "root", "secret", true)
	member := env.createUser(t, "alice", "secret", false)
	token := env.token(t, admin)

	rec := env.do(t, "POST", "/roles", token, map[string]interface{}{"name": "backend"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create role: status %d", rec.Code)
	}
	var role models.Role
	if err := json.Unmarshal(rec.Body.Bytes(), &role); err != nil {
		t.Fatalf("decode role: %v", err)
	}

	path := fmt.Sprintf("/roles/%d/users/%d", role.ID, member.ID)
	rec = env.do(t, "PUT", path, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add member: status %d, body %s", rec.Code, rec.Body)
	}
	rec = env.do(t, "PUT", path, token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate member: status %d, want 409", rec.Code)
	}
	rec = env.do(t, "DELETE", path, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove member: status %d", rec.Code)
	}
}

func TestProjectAndTaskSurface(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "secret", false)
	token := env.token(t, user)

	rec := env.do(t, "POST", "/projects", token, map[string]interface{}{"name": "platform"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", rec.Code, rec.Body)
	}
	var project models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if project.Code != "1" {
		t.Errorf("first project code = %q, want 1", project.Code)
	}
	if !project.IsActive {
		t.Error("project not active by default")
	}

	rec = env.do(t, "POST", "/tasks", token, map[string]interface{}{
		"name": "api", "project_code": project.Code,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, "POST", "/tasks", token, map[string]interface{}{
		"name": "ghost", "project_code": "404",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("task on missing project: status %d, want 404", rec.Code)
	}

	rec = env.do(t, "GET", "/projects/"+project.Code+"/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("project tasks: status %d", rec.Code)
	}
	var tasks []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "api" {
		t.Errorf("project tasks = %v, want the api task", tasks)
	}

	rec = env.do(t, "PUT", "/projects/"+project.Code, token, map[string]interface{}{"is_active": false})
	if rec.Code != http.StatusNoContent {
		t.Errorf("update project: status %d, body %s", rec.Code, rec.Body)
	}
	rec = env.do(t, "GET", "/projects/"+project.Code, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get project: status %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if project.IsActive {
		t.Error("is_active not updated")
	}
}

func TestChangePasswordInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", "secret", false)
	token := env.token(t, user)

	rec := env.do(t, "POST", "/change-password", token, map[string]string{
		"current_password": "wrong", "new_password": "updated",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status %d, want 401", rec.Code)
	}

	rec = env.do(t, "POST", "/change-password", token, map[string]string{
		"current_password": "secret", "new_password": "updated",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("change password: status %d, body %s", rec.Code, rec.Body)
	}

	// The old token embeds the old hash and no longer authenticates.
	rec = env.do(t, "GET", "/entries", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old token after change: status %d, want 401", rec.Code)
	}

	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "alice", "password": "updated"})
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password: status %d", rec.Code)
	}
	rec = env.do(t, "POST", "/login", "", map[string]string{"name": "alice", "password": "secret"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login with old password: status %d, want 401", rec.Code)
	}
}

func TestEntryListFiltersOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	task := env.seedTask(t, true)
	user := env.createUser(t, "alice", "secret", false)
	token := env.token(t, user)

	for _, date := range []string{"2024-06-03", "2024-06-04"} {
		rec := env.do(t, "POST", "/entries", token, map[string]interface{}{
			"task_id": task.ID, "date": date, "duration_min": 60,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create entry %s: status %d", date, rec.Code)
		}
	}

	rec := env.do(t, "GET", "/entries?date=2024-06-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter by date: status %d", rec.Code)
	}
	var entries []models.TimeEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("date filter = %d entries, want 1", len(entries))
	}

	// 2024-06-03 is a Monday; name and number both work.
	for _, q := range []string{"day_of_week=monday", "day_of_week=1"} {
		rec = env.do(t, "GET", "/entries?"+q, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("filter %s: status %d", q, rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("decode entries: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("%s = %d entries, want 1", q, len(entries))
		}
	}

	rec = env.do(t, "GET", "/entries?user_id=999", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user filter: status %d, want 404", rec.Code)
	}
	rec = env.do(t, "GET", "/entries?date=junk", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date: status %d, want 400", rec.Code)
	}
}
