// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

// Package access decides which nodes a user may see.
//
// Visibility is a single rule: administrators and users flagged
// access_all_nodes see every node; everyone else sees the node names
// explicitly assigned to them. An assignment covers every base station
// under the node. Inactive users see nothing.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/telemon/internal/models"
)

// ErrNotVisible is returned when a user asks for a node outside their grant.
var ErrNotVisible = errors.New("node not visible to user")

// Visible reports whether user may read node given the user's assigned node names.
func Visible(user *models.User, assigned []string, node string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.IsAdmin() || user.AccessAllNodes {
		return true
	}
	for _, n := range assigned {
		if n == node {
			return true
		}
	}
	return false
}

// Store is the data the resolver reads.
type Store interface {
	ListNodes(ctx context.Context) ([]string, error)
	AssignedNodes(ctx context.Context, userID int64) ([]string, error)
}

// Resolver applies Visible against the store.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// assignments loads the grant list only when the role does not already decide.
func (r *Resolver) assignments(ctx context.Context, user *models.User) ([]string, error) {
	if user == nil || !user.IsActive || user.IsAdmin() || user.AccessAllNodes {
		return nil, nil
	}
	nodes, err := r.store.AssignedNodes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments for user %d: %w", user.ID, err)
	}
	return nodes, nil
}

// VisibleNodes returns the node names present in samples that user may see.
func (r *Resolver) VisibleNodes(ctx context.Context, user *models.User) ([]string, error) {
	if user == nil || !user.IsActive {
		return []string{}, nil
	}
	all, err := r.store.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	assigned, err := r.assignments(ctx, user)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(all))
	for _, n := range all {
		if Visible(user, assigned, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Check returns ErrNotVisible unless user may read node.
func (r *Resolver) Check(ctx context.Context, user *models.User, node string) error {
	assigned, err := r.assignments(ctx, user)
	if err != nil {
		return err
	}
	if !Visible(user, assigned, node) {
		return ErrNotVisible
	}
	return nil
}
