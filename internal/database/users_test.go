// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/telemon/internal/models"
)

func createTestUser(t *testing.T, db *DB, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     true,
		PasswordHash: "$2a$04$hash",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db, "alice", models.RoleManager)
	if u.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	dup := &models.User{Username: "alice", Role: models.RoleViewer, IsActive: true, PasswordHash: "x"}
	if err := db.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := db.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != u.ID || got.Email != "alice@example.com" || got.Role != models.RoleManager {
		t.Errorf("unexpected user %+v", got)
	}
	if got.LastLoginAt != nil {
		t.Error("new user should have no last login")
	}

	got.FullName = "Alice A."
	got.Role = models.RoleAdmin
	if err := db.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	reloaded, err := db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if reloaded.FullName != "Alice A." || reloaded.Role != models.RoleAdmin {
		t.Errorf("update not persisted: %+v", reloaded)
	}

	if err := db.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	reloaded, _ = db.GetUserByID(ctx, u.ID)
	if reloaded.LastLoginAt == nil {
		t.Error("last login not recorded")
	}

	if _, err := db.GetUserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.UpdateUser(ctx, &models.User{ID: 9999, Role: models.RoleViewer}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser(missing): expected ErrNotFound, got %v", err)
	}
}

func TestDeactivateUserRevokesSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db, "bob", models.RoleViewer)
	createTestUser(t, db, "carol", models.RoleViewer)

	now := time.Now().UTC()
	s := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenID:   uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := db.DeactivateUser(ctx, u.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if err := db.DeactivateUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second deactivate: expected ErrNotFound, got %v", err)
	}

	got, err := db.GetSessionByTokenID(ctx, s.TokenID)
	if err != nil {
		t.Fatalf("GetSessionByTokenID: %v", err)
	}
	if got.RevokedAt == nil {
		t.Error("session should be revoked")
	}

	active, err := db.ListUsers(ctx, false)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(active) != 1 || active[0].Username != "carol" {
		t.Errorf("active users = %v", active)
	}
	all, _ := db.ListUsers(ctx, true)
	if len(all) != 2 {
		t.Errorf("all users = %d, want 2", len(all))
	}
}

func TestSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	live := &models.Session{ID: uuid.NewString(), UserID: 1, TokenID: "live", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	old := &models.Session{ID: uuid.NewString(), UserID: 1, TokenID: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*models.Session{live, old} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	if err := db.RevokeSession(ctx, "live"); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if err := db.RevokeSession(ctx, "live"); err != nil {
		t.Fatalf("RevokeSession twice: %v", err)
	}
	got, err := db.GetSessionByTokenID(ctx, "live")
	if err != nil || got.RevokedAt == nil {
		t.Fatalf("expected revoked session, got %+v err=%v", got, err)
	}

	n, err := db.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
	if _, err := db.GetSessionByTokenID(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.SeedAdmin(ctx, "admin", "$2a$04$hash")
	if err != nil || !created {
		t.Fatalf("SeedAdmin: created=%v err=%v", created, err)
	}
	created, err = db.SeedAdmin(ctx, "admin", "$2a$04$hash")
	if err != nil || created {
		t.Fatalf("second SeedAdmin: created=%v err=%v", created, err)
	}

	admin, err := db.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if !admin.IsAdmin() || !admin.AccessAllNodes {
		t.Errorf("seeded admin = %+v", admin)
	}
}

func TestAssignments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db, "dave", models.RoleViewer)

	a := &models.NodeAssignment{UserID: u.ID, NodeName: "north", AssignedBy: "admin"}
	if err := db.CreateAssignment(ctx, a); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if err := db.CreateAssignment(ctx, &models.NodeAssignment{UserID: u.ID, NodeName: "north", AssignedBy: "admin"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := db.CreateAssignment(ctx, &models.NodeAssignment{UserID: 9999, NodeName: "north", AssignedBy: "admin"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := db.CreateAssignment(ctx, &models.NodeAssignment{UserID: u.ID, NodeName: "east", AssignedBy: "admin", Notes: "temp"}); err != nil {
		t.Fatalf("CreateAssignment(east): %v", err)
	}

	nodes, err := db.AssignedNodes(ctx, u.ID)
	if err != nil {
		t.Fatalf("AssignedNodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0] != "east" || nodes[1] != "north" {
		t.Errorf("AssignedNodes = %v", nodes)
	}

	list, err := db.ListAssignments(ctx, &u.ID)
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(list) != 2 || list[0].Username != "dave" {
		t.Errorf("ListAssignments = %+v", list)
	}

	removed, err := db.DeleteAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	if removed.NodeName != "north" {
		t.Errorf("removed %+v", removed)
	}
	if _, err := db.DeleteAssignment(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	uid := int64(7)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, action := range []string{"login", "create_mapping", "logout"} {
		e := &models.ActivityEntry{
			UserID:    &uid,
			Username:  "erin",
			Action:    action,
			Resource:  "auth",
			IPAddress: "10.0.0.1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.InsertActivity(ctx, e); err != nil {
			t.Fatalf("InsertActivity: %v", err)
		}
	}
	if err := db.InsertActivity(ctx, &models.ActivityEntry{Username: "anonymous", Action: "login_failed", Resource: "auth"}); err != nil {
		t.Fatalf("InsertActivity(anonymous): %v", err)
	}

	all, err := db.ListActivity(ctx, models.ActivityFilter{})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(all) != 4 || all[0].Action != "login_failed" {
		t.Errorf("ListActivity newest first = %+v", all)
	}

	mine, err := db.ListActivity(ctx, models.ActivityFilter{UserID: &uid, Limit: 2})
	if err != nil {
		t.Fatalf("ListActivity(user): %v", err)
	}
	if len(mine) != 2 || mine[0].Action != "logout" || mine[1].Action != "create_mapping" {
		t.Errorf("ListActivity(user) = %+v", mine)
	}
}
