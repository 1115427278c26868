package handlers

import (
	"net/http"

	"worklog/apperr"
	"worklog/auth"
	"worklog/config"
	"worklog/middleware"
	"worklog/models"
	"worklog/store"
)

type AuthHandler struct {
	config *config.Config
	store  store.Store
}

func NewAuthHandler(cfg *config.Config, st store.Store) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		store:  st,
	}
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.store.GetUserByName(r.Context(), req.Name)
	if err != nil {
		writeError(w, apperr.ErrUnauthorized)
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, user.Name, req.Password) {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=5"`
}

// Register creates a plain user account. Admin and manager flags are
// only ever set through the admin-gated user directory.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=5"`
}

// ChangePassword re-hashes the credential with the current scheme, which
// also migrates legacy hashes forward. Outstanding tokens embed the old
// hash and stop verifying.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, user.Name, req.CurrentPassword) {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	hash, err := auth.HashPassword(user.Name, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	user.PasswordHash = hash
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
