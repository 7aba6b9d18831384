// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

import "time"

// User is an account that can log in to the dashboard.
// PasswordHash never leaves the server.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	Role           string     `json:"role"`
	AccessAllNodes bool       `json:"access_all_nodes"`
	IsActive       bool       `json:"is_active"`
	PasswordHash   string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=64,printascii"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	Email          string `json:"email" validate:"omitempty,email,max=255"`
	FullName       string `json:"full_name" validate:"max=255"`
	Role           string `json:"role" validate:"required,oneof=admin manager viewer"`
	AccessAllNodes bool   `json:"access_all_nodes"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email          *string `json:"email" validate:"omitempty,email,max=255"`
	FullName       *string `json:"full_name" validate:"omitempty,max=255"`
	Role           *string `json:"role" validate:"omitempty,oneof=admin manager viewer"`
	AccessAllNodes *bool   `json:"access_all_nodes"`
	IsActive       *bool   `json:"is_active"`
	Password       *string `json:"password" validate:"omitempty,min=8,max=128"`
}

// UpdateProfileRequest is the body of PUT /api/profile.
// Role and node access cannot be changed through the profile.
type UpdateProfileRequest struct {
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	FullName        *string `json:"full_name" validate:"omitempty,max=255"`
	CurrentPassword string  `json:"current_password" validate:"required_with=NewPassword"`
	NewPassword     *string `json:"new_password" validate:"omitempty,min=8,max=128"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}

// Session is a server-side record of an issued token.
type Session struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenID   string     `json:"-"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
