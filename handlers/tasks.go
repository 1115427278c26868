package handlers

import (
	"net/http"
	"strconv"

	"worklog/apperr"
	"worklog/models"
	"worklog/store"
)

type TaskHandler struct {
	store store.Store
}

func NewTaskHandler(st store.Store) *TaskHandler {
	return &TaskHandler{store: st}
}

// List returns tasks, optionally narrowed by project, role or assigned
// user (a user is assigned to a task through the task's role).
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.TaskFilter
	q := r.URL.Query()

	if raw := q.Get("project"); raw != "" {
		filter.ProjectCode = &raw
	}
	if raw := q.Get("role_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, apperr.Validation("invalid role_id"))
			return
		}
		id := uint(n)
		filter.RoleID = &id
	}
	if raw := q.Get("user_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, apperr.Validation("invalid user_id"))
			return
		}
		id := uint(n)
		filter.UserID = &id
	}

	tasks, err := h.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	ProjectCode string `json:"project_code" validate:"required"`
	RoleID      *uint  `json:"role_id"`
	IsActive    *bool  `json:"is_active"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.store.GetProject(r.Context(), req.ProjectCode); err != nil {
		writeError(w, err)
		return
	}
	if req.RoleID != nil {
		if _, err := h.store.GetRole(r.Context(), *req.RoleID); err != nil {
			writeError(w, err)
			return
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	task := &models.Task{
		Name:        req.Name,
		ProjectCode: req.ProjectCode,
		RoleID:      req.RoleID,
		IsActive:    active,
	}
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Name     *string `json:"name"`
	RoleID   *uint   `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.RoleID != nil {
		if _, err := h.store.GetRole(r.Context(), *req.RoleID); err != nil {
			writeError(w, err)
			return
		}
		task.RoleID = req.RoleID
	}
	if req.IsActive != nil {
		task.IsActive = *req.IsActive
	}
	if err := h.store.UpdateTask(r.Context(), task); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Entries lists the entries logged against a task.
func (h *TaskHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.store.GetTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.store.ListEntriesByTask(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
