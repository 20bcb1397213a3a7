package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

// UserHandler handles user management endpoints (admin only, except
// password self-service).
type UserHandler struct {
	store    store.UserStore
	validate *validator.Validate
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(s store.UserStore) *UserHandler {
	return &UserHandler{
		store:    s,
		validate: validator.New(),
	}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin manager basic"`
}

// UpdateUserRequest is the request body for PUT /api/v1/users/{username}.
type UpdateUserRequest struct {
	Role    *string `json:"role" validate:"omitempty,oneof=admin manager basic"`
	Enabled *bool   `json:"enabled"`
}

// PasswordRequest carries a new password for reset endpoints.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		BadRequest(w, "Invalid user payload: "+err.Error())
		return
	}

	hash, err := store.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}
	role := req.Role
	if role == "" {
		role = string(models.RoleBasic)
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	WriteJSONOK(w, out)
}

// Get handles GET /api/v1/users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.store.GetUser(r.Context(), username)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// Update handles PUT /api/v1/users/{username}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req UpdateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		BadRequest(w, "Invalid user payload: "+err.Error())
		return
	}

	user, err := h.store.GetUser(r.Context(), username)
	if err != nil {
		writeTreeError(w, err)
		return
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// Delete handles DELETE /api/v1/users/{username}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.store.DeleteUser(r.Context(), username); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}

// ResetPassword handles POST /api/v1/users/{username}/password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req PasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		BadRequest(w, "Invalid password payload: "+err.Error())
		return
	}

	hash, err := store.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}
	if err := h.store.UpdatePassword(r.Context(), username, hash); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}

// ChangeOwnPassword handles POST /api/v1/users/me/password.
func (h *UserHandler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := requirePrincipal(w, r, h.store)
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		BadRequest(w, "Invalid password payload: "+err.Error())
		return
	}

	hash, err := store.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}
	if err := h.store.UpdatePassword(r.Context(), user.Username, hash); err != nil {
		writeTreeError(w, err)
		return
	}
	WriteNoContent(w)
}
