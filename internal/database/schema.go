// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sample column groups. node_status_table carries Analog1..16, Digital1..8
// and Output1..8 value columns.
const (
	analogColumns  = 16
	digitalColumns = 8
	outputColumns  = 8
)

var sampleColumns = buildSampleColumns()

var sampleColumnSet = func() map[string]bool {
	set := make(map[string]bool, len(sampleColumns))
	for _, c := range sampleColumns {
		set[c] = true
	}
	return set
}()

func buildSampleColumns() []string {
	cols := make([]string, 0, analogColumns+digitalColumns+outputColumns)
	for i := 1; i <= analogColumns; i++ {
		cols = append(cols, fmt.Sprintf("Analog%dValue", i))
	}
	for i := 1; i <= digitalColumns; i++ {
		cols = append(cols, fmt.Sprintf("Digital%dValue", i))
	}
	for i := 1; i <= outputColumns; i++ {
		cols = append(cols, fmt.Sprintf("Output%dValue", i))
	}
	return cols
}

// SampleColumns returns the mappable raw value columns in schema order.
func SampleColumns() []string {
	out := make([]string, len(sampleColumns))
	copy(out, sampleColumns)
	return out
}

// IsSampleColumn reports whether name is a raw value column.
func IsSampleColumn(name string) bool {
	return sampleColumnSet[name]
}

// quoteIdent quotes an allow-listed identifier for DuckDB.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func sampleTableDDL() string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS node_status_table (
		"NodeName" VARCHAR NOT NULL,
		"NodeBaseStationName" VARCHAR NOT NULL,
		"time" TIMESTAMP NOT NULL`)
	for _, c := range sampleColumns {
		b.WriteString(",\n\t\t")
		b.WriteString(quoteIdent(c))
		b.WriteString(" DOUBLE")
	}
	b.WriteString("\n\t)")
	return b.String()
}

func tableCreationQueries() []string {
	return []string{
		sampleTableDDL(),

		`CREATE SEQUENCE IF NOT EXISTS seq_users_id START 1`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users_id'),
			username VARCHAR NOT NULL UNIQUE,
			email VARCHAR,
			full_name VARCHAR,
			role VARCHAR NOT NULL,
			access_all_nodes BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			password_hash VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token_id VARCHAR NOT NULL,
			ip_address VARCHAR,
			user_agent VARCHAR,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP
		)`,

		`CREATE SEQUENCE IF NOT EXISTS seq_node_assignments_id START 1`,
		`CREATE TABLE IF NOT EXISTS node_assignments (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_node_assignments_id'),
			user_id BIGINT NOT NULL,
			node_name VARCHAR NOT NULL,
			assigned_by VARCHAR NOT NULL,
			assigned_at TIMESTAMP NOT NULL,
			notes VARCHAR,
			UNIQUE (user_id, node_name)
		)`,

		`CREATE SEQUENCE IF NOT EXISTS seq_metric_mappings_id START 1`,
		`CREATE TABLE IF NOT EXISTS metric_mappings (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_metric_mappings_id'),
			node_name VARCHAR NOT NULL,
			base_station_name VARCHAR NOT NULL,
			metric_name VARCHAR NOT NULL,
			column_name VARCHAR NOT NULL,
			unit VARCHAR,
			display_order INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE SEQUENCE IF NOT EXISTS seq_metric_mapping_audit_id START 1`,
		`CREATE TABLE IF NOT EXISTS metric_mapping_audit (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_metric_mapping_audit_id'),
			mapping_id BIGINT NOT NULL,
			action VARCHAR NOT NULL,
			changed_by VARCHAR NOT NULL,
			changed_at TIMESTAMP NOT NULL,
			old_values VARCHAR,
			new_values VARCHAR
		)`,

		`CREATE SEQUENCE IF NOT EXISTS seq_activity_log_id START 1`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_activity_log_id'),
			user_id BIGINT,
			username VARCHAR NOT NULL,
			action VARCHAR NOT NULL,
			resource VARCHAR NOT NULL,
			details VARCHAR,
			ip_address VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
	}
}

func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_samples_pair_time ON node_status_table ("NodeName", "NodeBaseStationName", "time")`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions (token_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_user ON node_assignments (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_pair ON metric_mappings (node_name, base_station_name)`,
		`CREATE INDEX IF NOT EXISTS idx_mapping_audit_mapping ON metric_mapping_audit (mapping_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log (created_at)`,
	}
}

// createTables creates the database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates lookup indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
