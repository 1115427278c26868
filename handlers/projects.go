package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"worklog/models"
	"worklog/store"
)

type ProjectHandler struct {
	store store.Store
}

func NewProjectHandler(st store.Store) *ProjectHandler {
	return &ProjectHandler{store: st}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

type createProjectRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	project := &models.Project{
		Name:     req.Name,
		IsActive: active,
	}
	if err := h.store.CreateProject(r.Context(), project); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.GetProject(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type updateProjectRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.GetProject(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if err := h.store.UpdateProject(r.Context(), project); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tasks lists the tasks filed under a project.
func (h *ProjectHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := h.store.GetProject(r.Context(), code); err != nil {
		writeError(w, err)
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), store.TaskFilter{ProjectCode: &code})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
