// Killstream - Game Hit Event Ingestion and Batch Flush Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/killstream

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"github.com/tomtom215/killstream/internal/hitevent"
	"github.com/tomtom215/killstream/internal/logging"
)

// DuckDBConfig configures the DuckDB sink.
type DuckDBConfig struct {
	// Path is the database file; ":memory:" or "" for an in-memory database.
	Path  string
	Table string
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DuckDBSink appends records to a table without a primary key. A batch is
// one transaction: it is stored entirely or not at all.
type DuckDBSink struct {
	db    *sql.DB
	table string
	owned bool
}

// OpenDuckDB opens the database file and creates the table if needed.
func OpenDuckDB(ctx context.Context, cfg DuckDBConfig) (*DuckDBSink, error) {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	s, err := NewDuckDBSink(ctx, db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true

	logging.Info().Str("path", cfg.Path).Str("table", cfg.Table).Msg("DuckDB sink opened")
	return s, nil
}

// NewDuckDBSink uses an already open database and creates the table if needed.
func NewDuckDBSink(ctx context.Context, db *sql.DB, table string) (*DuckDBSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &DuckDBSink{db: db, table: table}
	if err := s.CreateTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateTable creates the append-only event table.
func (s *DuckDBSink) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			match_id    VARCHAR NOT NULL,
			attacker_id VARCHAR NOT NULL,
			hit_id      VARCHAR NOT NULL,
			damage      INTEGER NOT NULL,
			weapon      VARCHAR,
			ts          VARCHAR NOT NULL,
			inserted_at TIMESTAMP DEFAULT current_timestamp
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// BulkInsert implements Sink.
func (s *DuckDBSink) BulkInsert(ctx context.Context, records []hitevent.DurableRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		err = observe(s.Name(), start, len(records), err)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("DuckDB rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (match_id, attacker_id, hit_id, damage, weapon, ts) VALUES (?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close prepared statement")
		}
	}()

	for i := range records {
		r := &records[i]
		if _, err = stmt.ExecContext(ctx, r.MatchID, r.AttackerID, r.HitID, r.Damage, r.Weapon, r.TS); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *DuckDBSink) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Name implements Sink.
func (s *DuckDBSink) Name() string {
	return "duckdb"
}

// Close closes the database when the sink opened it.
func (s *DuckDBSink) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
