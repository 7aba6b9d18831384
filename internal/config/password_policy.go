// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrWeakPassword is returned when a password fails the policy.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy defines requirements for password strength.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool

	// ForbidUsernameSimilarity rejects passwords that contain the username.
	ForbidUsernameSimilarity bool
}

// DefaultPasswordPolicy is applied to the bootstrap admin account.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		RequireUppercase:         true,
		RequireLowercase:         true,
		RequireDigit:             true,
		ForbidUsernameSimilarity: true,
	}
}

// UserPasswordPolicy is applied to accounts created through the API.
func UserPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                8,
		RequireLowercase:         true,
		RequireDigit:             true,
		ForbidUsernameSimilarity: true,
	}
}

// Validate returns an error wrapping ErrWeakPassword listing every failed rule.
func (p PasswordPolicy) Validate(password, username string) error {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if p.RequireUppercase && !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		problems = append(problems, "must contain a digit")
	}
	if p.ForbidUsernameSimilarity && username != "" &&
		strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		problems = append(problems, "must not contain the username")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(problems, "; "))
	}
	return nil
}
