package handlers

import (
	"net/http"

	"worklog/auth"
	"worklog/models"
	"worklog/store"
)

type UserHandler struct {
	store store.Store
}

func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type createUserRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	Password  string `json:"password" validate:"required,min=5"`
	IsAdmin   bool   `json:"is_admin"`
	IsManager bool   `json:"is_manager"`
}

// Create adds a user to the directory. Admin-gated, so flags may be set
// here, unlike self-registration.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	user := &models.User{
		Name:         req.Name,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		IsManager:    req.IsManager,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Name      *string `json:"name"`
	IsAdmin   *bool   `json:"is_admin"`
	IsManager *bool   `json:"is_manager"`
}

// Update patches a user. Renaming re-hashes nothing: the stored hash is
// bound to the old name for legacy hashes, so those users must log in
// with their original credentials until they change their password.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.IsManager != nil {
		user.IsManager = *req.IsManager
	}
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramUint(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
