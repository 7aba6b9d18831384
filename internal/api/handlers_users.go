// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/models"
)

// ListUsers lists user accounts. Inactive accounts are included with
// ?include_inactive=true.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	users, err := h.db.ListUsers(r.Context(), getBoolParam(r, "include_inactive"))
	if err != nil {
		h.respondServiceError(w, r, err, "users")
		return
	}
	respondList(w, users, len(users), start)
}

// GetUser returns one user by id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}
	respondData(w, http.StatusOK, "", u)
}

// hashPassword applies the user password policy before hashing. It writes
// the 400 response itself and returns false on a weak password.
func (h *Handler) hashPassword(w http.ResponseWriter, r *http.Request, password, username string) (string, bool) {
	if err := config.UserPasswordPolicy().Validate(password, username); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
		return "", false
	}
	hash, err := auth.HashPassword(password, h.config.Security.BcryptCost)
	if err != nil {
		h.respondInternal(w, r, err)
		return "", false
	}
	return hash, true
}

// CreateUser creates an account.
//
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param user body models.CreateUserRequest true "New user"
// @Success 201 {object} models.APIResponse{data=models.User}
// @Failure 409 {object} models.APIResponse "CONFLICT"
// @Router /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	hash, ok := h.hashPassword(w, r, req.Password, username)
	if !ok {
		return
	}

	u := &models.User{
		Username:       username,
		Email:          strings.TrimSpace(req.Email),
		FullName:       strings.TrimSpace(req.FullName),
		Role:           req.Role,
		AccessAllNodes: req.AccessAllNodes,
		IsActive:       true,
		PasswordHash:   hash,
	}
	if err := h.db.CreateUser(r.Context(), u); err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	h.recordActivity(r, nil, actionUserCreate, "user", "created user %s (id %d, role %s)", u.Username, u.ID, u.Role)
	respondData(w, http.StatusCreated, "User created", u)
}

// UpdateUser applies a partial update. Admins cannot demote or deactivate
// their own account.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := currentUser(r)
	if actor.ID == id {
		if req.Role != nil && *req.Role != actor.Role {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "You cannot change your own role")
			return
		}
		if req.IsActive != nil && !*req.IsActive {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "You cannot deactivate your own account")
			return
		}
	}

	u, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	var changed []string
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
		changed = append(changed, "email")
	}
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
		changed = append(changed, "full_name")
	}
	if req.Role != nil {
		u.Role = *req.Role
		changed = append(changed, "role="+u.Role)
	}
	if req.AccessAllNodes != nil {
		u.AccessAllNodes = *req.AccessAllNodes
		changed = append(changed, "access_all_nodes")
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
		changed = append(changed, "is_active")
	}
	if req.Password != nil {
		hash, ok := h.hashPassword(w, r, *req.Password, u.Username)
		if !ok {
			return
		}
		u.PasswordHash = hash
		changed = append(changed, "password")
	}

	if err := h.db.UpdateUser(r.Context(), u); err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	h.recordActivity(r, actor, actionUserUpdate, "user", "updated user %s: %s", u.Username, strings.Join(changed, ", "))
	respondData(w, http.StatusOK, "User updated", u)
}

// DeleteUser soft-deletes an account and revokes its sessions.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := currentUser(r)
	if actor.ID == id {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "You cannot delete your own account")
		return
	}

	if err := h.db.DeactivateUser(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	h.recordActivity(r, actor, actionUserDelete, "user", "deactivated user id %d", id)
	respondData(w, http.StatusOK, "User deactivated", nil)
}

// GetProfile returns the caller's own account.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, "", currentUser(r))
}

// UpdateProfile lets any user change their own name, email and password.
// A new password requires the current one.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Reload so the update starts from the stored hash.
	u, err := h.db.GetUserByID(r.Context(), currentUser(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.NewPassword != nil {
		if !auth.CheckPassword(u.PasswordHash, req.CurrentPassword) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Current password is incorrect")
			return
		}
		hash, ok := h.hashPassword(w, r, *req.NewPassword, u.Username)
		if !ok {
			return
		}
		u.PasswordHash = hash
	}

	if err := h.db.UpdateUser(r.Context(), u); err != nil {
		h.respondServiceError(w, r, err, "user")
		return
	}

	detail := "updated profile"
	if req.NewPassword != nil {
		detail = "updated profile and password"
	}
	h.recordActivity(r, u, actionProfileUpdate, "profile", "%s", detail)
	respondData(w, http.StatusOK, "Profile updated", u)
}
