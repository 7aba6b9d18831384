// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

const sampleTable = "node_status_table"

// ListNodes returns the distinct node names present in the samples table.
func (db *DB) ListNodes(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx, "list_nodes",
		`SELECT DISTINCT "NodeName" FROM node_status_table ORDER BY "NodeName"`)
}

// ListBaseStations returns the distinct base stations recorded for a node.
// An unknown node yields an empty slice.
func (db *DB) ListBaseStations(ctx context.Context, nodeName string) ([]string, error) {
	return db.queryStrings(ctx, "list_basestations",
		`SELECT DISTINCT "NodeBaseStationName" FROM node_status_table
		 WHERE "NodeName" = ? ORDER BY "NodeBaseStationName"`, nodeName)
}

func (db *DB) queryStrings(ctx context.Context, op, query string, args ...interface{}) ([]string, error) {
	out := []string{}
	err := db.run(op, sampleTable, func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// LatestSampleTime returns MAX(time) for the pair. ok is false when the
// pair has no samples.
func (db *DB) LatestSampleTime(ctx context.Context, nodeName, baseStation string) (anchor time.Time, ok bool, err error) {
	err = db.run("latest_sample", sampleTable, func() error {
		var t sql.NullTime
		if err := db.conn.QueryRowContext(ctx,
			`SELECT MAX("time") FROM node_status_table
			 WHERE "NodeName" = ? AND "NodeBaseStationName" = ?`,
			nodeName, baseStation).Scan(&t); err != nil {
			return err
		}
		anchor, ok = t.Time.UTC(), t.Valid
		return nil
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest sample: %w", err)
	}
	return anchor, ok, nil
}

// CountSamples counts samples for the pair with time in [start, end].
func (db *DB) CountSamples(ctx context.Context, nodeName, baseStation string, start, end time.Time) (int64, error) {
	var n int64
	err := db.run("count_samples", sampleTable, func() error {
		return db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM node_status_table
			 WHERE "NodeName" = ? AND "NodeBaseStationName" = ? AND "time" >= ? AND "time" <= ?`,
			nodeName, baseStation, start.UTC(), end.UTC()).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

func checkColumns(cols []models.MetricColumn) error {
	for _, c := range cols {
		if !IsSampleColumn(c.Column) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, c.Column)
		}
	}
	return nil
}

// QuerySamples returns the pair's samples with time in [start, end], newest
// first, each carrying the requested columns keyed by display name.
func (db *DB) QuerySamples(ctx context.Context, nodeName, baseStation string, start, end time.Time, cols []models.MetricColumn) ([]models.Sample, error) {
	if err := checkColumns(cols); err != nil {
		return nil, err
	}

	selectCols := make([]string, 0, len(cols))
	for _, c := range cols {
		selectCols = append(selectCols, quoteIdent(c.Column))
	}
	query := `SELECT "time", "NodeName", "NodeBaseStationName"`
	if len(selectCols) > 0 {
		query += ", " + strings.Join(selectCols, ", ")
	}
	query += ` FROM node_status_table
		WHERE "NodeName" = ? AND "NodeBaseStationName" = ? AND "time" >= ? AND "time" <= ?
		ORDER BY "time" DESC`

	var samples []models.Sample
	err := db.run("query_samples", sampleTable, func() error {
		rows, err := db.conn.QueryContext(ctx, query, nodeName, baseStation, start.UTC(), end.UTC())
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")

		values := make([]sql.NullFloat64, len(cols))
		for rows.Next() {
			s := models.Sample{Values: make(map[string]*float64, len(cols))}
			dest := make([]interface{}, 0, 3+len(cols))
			dest = append(dest, &s.Time, &s.NodeName, &s.BaseStationName)
			for i := range values {
				dest = append(dest, &values[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			s.Time = s.Time.UTC()
			for i, c := range cols {
				s.Values[c.Name] = nullFloatPtr(values[i])
			}
			samples = append(samples, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	return samples, nil
}

// QueryBuckets aggregates the pair's samples in [start, end] into buckets of
// stepMinutes aligned to start, newest bucket first. Only buckets with at
// least one sample are returned.
func (db *DB) QueryBuckets(ctx context.Context, nodeName, baseStation string, start, end time.Time, stepMinutes int, cols []models.MetricColumn) ([]models.Bucket, error) {
	if err := checkColumns(cols); err != nil {
		return nil, err
	}
	if stepMinutes < 1 {
		stepMinutes = 1
	}

	aggCols := make([]string, 0, len(cols))
	for _, c := range cols {
		aggCols = append(aggCols, "AVG("+quoteIdent(c.Column)+")")
	}
	query := `SELECT time_bucket(to_minutes(CAST(? AS BIGINT)), "time", CAST(? AS TIMESTAMP)) AS bucket_start,
		COUNT(*) AS sample_count`
	if len(aggCols) > 0 {
		query += ", " + strings.Join(aggCols, ", ")
	}
	query += ` FROM node_status_table
		WHERE "NodeName" = ? AND "NodeBaseStationName" = ? AND "time" >= ? AND "time" <= ?
		GROUP BY bucket_start
		HAVING COUNT(*) > 0
		ORDER BY bucket_start DESC`

	var buckets []models.Bucket
	err := db.run("query_buckets", sampleTable, func() error {
		rows, err := db.conn.QueryContext(ctx, query,
			int64(stepMinutes), start.UTC(), nodeName, baseStation, start.UTC(), end.UTC())
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")

		values := make([]sql.NullFloat64, len(cols))
		for rows.Next() {
			b := models.Bucket{Values: make(map[string]*float64, len(cols))}
			dest := make([]interface{}, 0, 2+len(cols))
			dest = append(dest, &b.BucketStart, &b.SampleCount)
			for i := range values {
				dest = append(dest, &values[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			b.BucketStart = b.BucketStart.UTC()
			for i, c := range cols {
				b.Values[c.Name] = nullFloatPtr(values[i])
			}
			buckets = append(buckets, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	return buckets, nil
}

// InsertSample appends one sample row. values is keyed by raw column name.
// Samples are normally written by the external collector; this is used by
// tests and data loading tools.
func (db *DB) InsertSample(ctx context.Context, nodeName, baseStation string, t time.Time, values map[string]float64) error {
	cols := []string{`"NodeName"`, `"NodeBaseStationName"`, `"time"`}
	args := []interface{}{nodeName, baseStation, t.UTC()}
	for _, c := range sampleColumns {
		v, ok := values[c]
		if !ok {
			continue
		}
		cols = append(cols, quoteIdent(c))
		args = append(args, v)
	}
	for c := range values {
		if !IsSampleColumn(c) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, c)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO node_status_table (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)

	return db.run("insert_sample", sampleTable, func() error {
		_, err := db.conn.ExecContext(ctx, query, args...)
		return err
	})
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
