// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/telemon/internal/models"
)

func createMapping(t *testing.T, env *testEnv, token string, req models.CreateMappingRequest) *models.MetricMapping {
	t.Helper()
	w := env.do(http.MethodPost, "/api/metric-mappings", token, req)
	expectStatus(t, w, http.StatusCreated)
	var m models.MetricMapping
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &m); err != nil {
		t.Fatalf("decode mapping: %v", err)
	}
	return &m
}

func listMappings(t *testing.T, env *testEnv, token, query string) []models.MetricMapping {
	t.Helper()
	w := env.do(http.MethodGet, "/api/metric-mappings"+query, token, nil)
	expectStatus(t, w, http.StatusOK)
	var list []models.MetricMapping
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return list
}

func auditCount(t *testing.T, env *testEnv, token string, id int64) int {
	t.Helper()
	w := env.do(http.MethodGet, fmt.Sprintf("/api/metric-mappings/%d/audit", id), token, nil)
	expectStatus(t, w, http.StatusOK)
	var entries []models.MappingAuditEntry
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &entries); err != nil {
		t.Fatalf("decode audit: %v", err)
	}
	return len(entries)
}

func TestDuplicateMappingConflict(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("admin", "admin-pass-1", models.RoleAdmin, false)
	token := env.token("admin", "admin-pass-1")

	first := createMapping(t, env, token, models.CreateMappingRequest{
		NodeName: "north", BaseStationName: "bs1", MetricName: "VSWR", ColumnName: "Analog1Value",
	})

	dupes := []models.CreateMappingRequest{
		{NodeName: "north", BaseStationName: "bs1", MetricName: "Other", ColumnName: "Analog1Value"},
		{NodeName: "north", BaseStationName: "bs1", MetricName: "VSWR", ColumnName: "Analog2Value"},
	}
	for _, req := range dupes {
		w := env.do(http.MethodPost, "/api/metric-mappings", token, req)
		expectError(t, w, http.StatusConflict, models.ErrCodeDuplicateMapping)
	}

	if got := listMappings(t, env, token, "?include_inactive=true"); len(got) != 1 {
		t.Errorf("mappings after rejected duplicates = %d, want 1", len(got))
	}
	if n := auditCount(t, env, token, first.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}

	// Same column on another base station is fine.
	createMapping(t, env, token, models.CreateMappingRequest{
		NodeName: "north", BaseStationName: "bs2", MetricName: "VSWR", ColumnName: "Analog1Value",
	})
}

func TestMappingValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("admin", "admin-pass-1", models.RoleAdmin, false)
	token := env.token("admin", "admin-pass-1")

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing fields", map[string]string{"node_name": "north"}},
		{"unknown column", models.CreateMappingRequest{NodeName: "n", BaseStationName: "b", MetricName: "m", ColumnName: "NotAColumn"}},
		{"reserved metric name", models.CreateMappingRequest{NodeName: "n", BaseStationName: "b", MetricName: "time", ColumnName: "Analog1Value"}},
		{"reserved bucket key", models.CreateMappingRequest{NodeName: "n", BaseStationName: "b", MetricName: "sample_count", ColumnName: "Analog2Value"}},
		{"unknown field", map[string]string{"node_name": "n", "base_station_name": "b", "metric_name": "m", "column_name": "Analog1Value", "bogus": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/metric-mappings", token, tt.body)
			expectError(t, w, http.StatusBadRequest, models.ErrCodeValidation)
		})
	}
}

func TestMappingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("admin", "admin-pass-1", models.RoleAdmin, false)
	token := env.token("admin", "admin-pass-1")

	m := createMapping(t, env, token, models.CreateMappingRequest{
		NodeName: "north", BaseStationName: "bs1", MetricName: "Temp", ColumnName: "Analog3Value", Unit: "C",
	})
	path := fmt.Sprintf("/api/metric-mappings/%d", m.ID)

	unit := "F"
	w := env.do(http.MethodPut, path, token, models.UpdateMappingRequest{Unit: &unit})
	expectStatus(t, w, http.StatusOK)

	expectStatus(t, env.do(http.MethodGet, path, token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodDelete, path, token, nil), http.StatusOK)

	if got := listMappings(t, env, token, "?node_name=north"); len(got) != 0 {
		t.Errorf("default listing shows %d soft-deleted mappings", len(got))
	}
	if got := listMappings(t, env, token, "?node_name=north&include_inactive=true"); len(got) != 1 || got[0].IsActive {
		t.Errorf("inactive listing = %+v", got)
	}
	if n := auditCount(t, env, token, m.ID); n != 3 {
		t.Errorf("audit rows = %d, want 3", n)
	}

	expectError(t, env.do(http.MethodDelete, path, token, nil), http.StatusNotFound, models.ErrCodeNotFound)
	expectError(t, env.do(http.MethodPut, path, token, models.UpdateMappingRequest{Unit: &unit}), http.StatusNotFound, models.ErrCodeNotFound)
	expectError(t, env.do(http.MethodGet, "/api/metric-mappings/abc", token, nil), http.StatusBadRequest, models.ErrCodeValidation)
}

func TestMappingColumnsAndUnmapped(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("admin", "admin-pass-1", models.RoleAdmin, false)
	env.addUser("mgr", "manager-pass-1", models.RoleManager, false)
	env.addSample("north", "bs1", anchor, map[string]float64{"Analog1Value": 1})
	env.addSample("north", "bs1", anchor.Add(-time.Minute), map[string]float64{"Analog1Value": 1})
	env.addSample("south", "bs9", anchor, map[string]float64{"Analog1Value": 1})
	admin := env.token("admin", "admin-pass-1")
	manager := env.token("mgr", "manager-pass-1")

	w := env.do(http.MethodGet, "/api/metric-mappings/columns", manager, nil)
	expectStatus(t, w, http.StatusOK)
	var cols []string
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &cols); err != nil || len(cols) == 0 {
		t.Fatalf("columns = %v (%v)", cols, err)
	}

	expectError(t, env.do(http.MethodGet, "/api/metric-mappings/unmapped", manager, nil), http.StatusForbidden, models.ErrCodeForbidden)

	createMapping(t, env, admin, models.CreateMappingRequest{
		NodeName: "south", BaseStationName: "bs9", MetricName: "VSWR", ColumnName: "Analog1Value",
	})
	w = env.do(http.MethodGet, "/api/metric-mappings/unmapped", admin, nil)
	expectStatus(t, w, http.StatusOK)
	var pairs []models.UnmappedPair
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &pairs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pairs) != 1 || pairs[0].NodeName != "north" || pairs[0].SampleCount != 2 {
		t.Errorf("unmapped = %+v", pairs)
	}
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("mgr", "manager-pass-1", models.RoleManager, false)
	env.addUser("vera", "viewer-pass-1", models.RoleViewer, false)
	manager := env.token("mgr", "manager-pass-1")
	viewer := env.token("vera", "viewer-pass-1")

	mapping := models.CreateMappingRequest{NodeName: "n", BaseStationName: "b", MetricName: "m", ColumnName: "Analog1Value"}
	newUser := models.CreateUserRequest{Username: "bob", Password: "bobs-pass-1", Role: models.RoleViewer}

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"viewer lists users", viewer, http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"viewer reads activity", viewer, http.MethodGet, "/api/activity", nil, http.StatusForbidden},
		{"viewer lists mappings", viewer, http.MethodGet, "/api/metric-mappings", nil, http.StatusForbidden},
		{"viewer creates mapping", viewer, http.MethodPost, "/api/metric-mappings", mapping, http.StatusForbidden},
		{"viewer reads profile", viewer, http.MethodGet, "/api/profile", nil, http.StatusOK},
		{"viewer lists nodes", viewer, http.MethodGet, "/api/nodes", nil, http.StatusOK},
		{"manager lists users", manager, http.MethodGet, "/api/users", nil, http.StatusOK},
		{"manager lists assignments", manager, http.MethodGet, "/api/node-assignments", nil, http.StatusOK},
		{"manager reads activity", manager, http.MethodGet, "/api/activity", nil, http.StatusOK},
		{"manager creates user", manager, http.MethodPost, "/api/users", newUser, http.StatusForbidden},
		{"manager creates mapping", manager, http.MethodPost, "/api/metric-mappings", mapping, http.StatusForbidden},
		{"manager deletes assignment", manager, http.MethodDelete, "/api/node-assignments/1", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.token, tt.body)
			if tt.want == http.StatusForbidden {
				expectError(t, w, http.StatusForbidden, models.ErrCodeForbidden)
				return
			}
			expectStatus(t, w, tt.want)
		})
	}
}
