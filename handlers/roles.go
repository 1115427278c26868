package handlers

import (
	"net/http"

	"worklog/models"
	"worklog/store"
)

type RoleHandler struct {
	store store.Store
}

func NewRoleHandler(st store.Store) *RoleHandler {
	return &RoleHandler{store: st}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	role, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	role := &models.Role{Name: req.Name}
	if err := h.store.CreateRole(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteRole(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMember assigns a user to the role. Assigning twice is a conflict.
func (h *RoleHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	roleID, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := paramUint(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.AddRoleMember(r.Context(), roleID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoleHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	roleID, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := paramUint(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.RemoveRoleMember(r.Context(), roleID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
