// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/telemon/internal/models"
)

const mappingColumns = `id, node_name, base_station_name, metric_name, column_name, unit,
	display_order, is_active, created_by, created_at, updated_at`

func scanMappingRow(scanner rowScanner) (*models.MetricMapping, error) {
	m := &models.MetricMapping{}
	var unit sql.NullString
	if err := scanner.Scan(&m.ID, &m.NodeName, &m.BaseStationName, &m.MetricName, &m.ColumnName, &unit,
		&m.DisplayOrder, &m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Unit = unit.String
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// checkMappingConflict returns ErrDuplicateMapping when another active mapping
// for the pair already uses the column or the metric name.
func checkMappingConflict(ctx context.Context, q queryer, m *models.MetricMapping) error {
	var column, metric string
	err := q.QueryRowContext(ctx, `
		SELECT column_name, metric_name FROM metric_mappings
		WHERE node_name = ? AND base_station_name = ? AND is_active = TRUE
		  AND (column_name = ? OR metric_name = ?) AND id <> ?
		LIMIT 1`,
		m.NodeName, m.BaseStationName, m.ColumnName, m.MetricName, m.ID).Scan(&column, &metric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if column == m.ColumnName {
		return fmt.Errorf("%w: column %s is already mapped", ErrDuplicateMapping, column)
	}
	return fmt.Errorf("%w: metric %q is already defined", ErrDuplicateMapping, metric)
}

func encodeSnapshot(m *models.MetricMapping) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping snapshot: %w", err)
	}
	return string(b), nil
}

func insertAudit(ctx context.Context, q queryer, mappingID int64, action, changedBy string, at time.Time, before, after *models.MetricMapping) error {
	oldValues, err := encodeSnapshot(before)
	if err != nil {
		return err
	}
	newValues, err := encodeSnapshot(after)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO metric_mapping_audit (mapping_id, action, changed_by, changed_at, old_values, new_values)
		VALUES (?, ?, ?, ?, ?, ?)`,
		mappingID, action, changedBy, at, oldValues, newValues)
	return err
}

// CreateMapping inserts an active mapping and its audit row atomically.
// Returns ErrDuplicateMapping when the pair already has an active mapping
// with the same column or metric name; nothing is written in that case.
func (db *DB) CreateMapping(ctx context.Context, m *models.MetricMapping) error {
	if !IsSampleColumn(m.ColumnName) {
		return fmt.Errorf("%w: %s", ErrInvalidColumn, m.ColumnName)
	}

	db.mappingMu.Lock()
	defer db.mappingMu.Unlock()

	now := time.Now().UTC()
	err := db.run("insert", "metric_mappings", func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer rollbackQuietly(tx)

		m.ID = 0
		if err := checkMappingConflict(ctx, tx, m); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO metric_mappings (node_name, base_station_name, metric_name, column_name, unit,
			                             display_order, is_active, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, TRUE, ?, ?, ?)
			RETURNING id`,
			m.NodeName, m.BaseStationName, m.MetricName, m.ColumnName, nullString(m.Unit),
			m.DisplayOrder, m.CreatedBy, now, now).Scan(&m.ID); err != nil {
			return err
		}
		m.IsActive = true
		if err := insertAudit(ctx, tx, m.ID, models.MappingActionCreate, m.CreatedBy, now, nil, m); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		m.ID = 0
		m.IsActive = false
		return fmt.Errorf("failed to create mapping: %w", err)
	}
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

// UpdateMapping applies the non-nil fields of req to an active mapping and
// writes one audit row with the old and new values.
func (db *DB) UpdateMapping(ctx context.Context, id int64, req *models.UpdateMappingRequest, changedBy string) (*models.MetricMapping, error) {
	if req.ColumnName != nil && !IsSampleColumn(*req.ColumnName) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidColumn, *req.ColumnName)
	}

	db.mappingMu.Lock()
	defer db.mappingMu.Unlock()

	now := time.Now().UTC()
	var updated *models.MetricMapping
	err := db.run("update", "metric_mappings", func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer rollbackQuietly(tx)

		before, err := scanMappingRow(tx.QueryRowContext(ctx,
			"SELECT "+mappingColumns+" FROM metric_mappings WHERE id = ? AND is_active = TRUE", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		after := *before
		if req.MetricName != nil {
			after.MetricName = *req.MetricName
		}
		if req.ColumnName != nil {
			after.ColumnName = *req.ColumnName
		}
		if req.Unit != nil {
			after.Unit = *req.Unit
		}
		if req.DisplayOrder != nil {
			after.DisplayOrder = *req.DisplayOrder
		}
		after.UpdatedAt = now

		if err := checkMappingConflict(ctx, tx, &after); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE metric_mappings
			SET metric_name = ?, column_name = ?, unit = ?, display_order = ?, updated_at = ?
			WHERE id = ?`,
			after.MetricName, after.ColumnName, nullString(after.Unit), after.DisplayOrder, now, id); err != nil {
			return err
		}
		if err := insertAudit(ctx, tx, id, models.MappingActionUpdate, changedBy, now, before, &after); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = &after
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update mapping %d: %w", id, err)
	}
	return updated, nil
}

// DeleteMapping soft-deletes an active mapping and records the audit row.
func (db *DB) DeleteMapping(ctx context.Context, id int64, changedBy string) (*models.MetricMapping, error) {
	db.mappingMu.Lock()
	defer db.mappingMu.Unlock()

	now := time.Now().UTC()
	var deleted *models.MetricMapping
	err := db.run("delete", "metric_mappings", func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer rollbackQuietly(tx)

		before, err := scanMappingRow(tx.QueryRowContext(ctx,
			"SELECT "+mappingColumns+" FROM metric_mappings WHERE id = ? AND is_active = TRUE", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE metric_mappings SET is_active = FALSE, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return err
		}
		if err := insertAudit(ctx, tx, id, models.MappingActionDelete, changedBy, now, before, nil); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		after := *before
		after.IsActive = false
		after.UpdatedAt = now
		deleted = &after
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete mapping %d: %w", id, err)
	}
	return deleted, nil
}

// GetMapping returns a mapping by id, including soft-deleted rows.
func (db *DB) GetMapping(ctx context.Context, id int64) (*models.MetricMapping, error) {
	var m *models.MetricMapping
	err := db.run("select", "metric_mappings", func() error {
		var err error
		m, err = scanMappingRow(db.conn.QueryRowContext(ctx,
			"SELECT "+mappingColumns+" FROM metric_mappings WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping %d: %w", id, err)
	}
	return m, nil
}

// ListMappings returns mappings ordered by node, base station, display order and id.
func (db *DB) ListMappings(ctx context.Context, f models.MappingFilter) ([]*models.MetricMapping, error) {
	query := "SELECT " + mappingColumns + " FROM metric_mappings WHERE 1=1"
	var args []interface{}
	if !f.IncludeInactive {
		query += " AND is_active = TRUE"
	}
	if f.NodeName != "" {
		query += " AND node_name = ?"
		args = append(args, f.NodeName)
	}
	if f.BaseStationName != "" {
		query += " AND base_station_name = ?"
		args = append(args, f.BaseStationName)
	}
	query += " ORDER BY node_name, base_station_name, display_order, id"

	out := []*models.MetricMapping{}
	err := db.run("select", "metric_mappings", func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			m, err := scanMappingRow(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	return out, nil
}

// ActiveMappings returns the active mappings of one pair in display order.
func (db *DB) ActiveMappings(ctx context.Context, nodeName, baseStation string) ([]*models.MetricMapping, error) {
	return db.ListMappings(ctx, models.MappingFilter{NodeName: nodeName, BaseStationName: baseStation})
}

// MappingAudit returns the audit history of a mapping, oldest first.
func (db *DB) MappingAudit(ctx context.Context, mappingID int64) ([]*models.MappingAuditEntry, error) {
	out := []*models.MappingAuditEntry{}
	err := db.run("select", "metric_mapping_audit", func() error {
		rows, err := db.conn.QueryContext(ctx, `
			SELECT id, mapping_id, action, changed_by, changed_at, old_values, new_values
			FROM metric_mapping_audit
			WHERE mapping_id = ?
			ORDER BY changed_at, id`, mappingID)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			e := &models.MappingAuditEntry{}
			var oldValues, newValues sql.NullString
			if err := rows.Scan(&e.ID, &e.MappingID, &e.Action, &e.ChangedBy, &e.ChangedAt, &oldValues, &newValues); err != nil {
				return err
			}
			e.ChangedAt = e.ChangedAt.UTC()
			e.OldValues, e.NewValues = oldValues.String, newValues.String
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load audit for mapping %d: %w", mappingID, err)
	}
	return out, nil
}

// UnmappedPairs lists node/base-station pairs that have samples but no active
// mappings, busiest first.
func (db *DB) UnmappedPairs(ctx context.Context) ([]*models.UnmappedPair, error) {
	out := []*models.UnmappedPair{}
	err := db.run("select", sampleTable, func() error {
		rows, err := db.conn.QueryContext(ctx, `
			SELECT s."NodeName", s."NodeBaseStationName", COUNT(*) AS sample_count, MAX(s."time") AS last_seen
			FROM node_status_table s
			WHERE NOT EXISTS (
				SELECT 1 FROM metric_mappings m
				WHERE m.node_name = s."NodeName"
				  AND m.base_station_name = s."NodeBaseStationName"
				  AND m.is_active = TRUE
			)
			GROUP BY s."NodeName", s."NodeBaseStationName"
			ORDER BY sample_count DESC, s."NodeName", s."NodeBaseStationName"`)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			p := &models.UnmappedPair{}
			if err := rows.Scan(&p.NodeName, &p.BaseStationName, &p.SampleCount, &p.LastSeen); err != nil {
				return err
			}
			p.LastSeen = p.LastSeen.UTC()
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unmapped pairs: %w", err)
	}
	return out, nil
}
