// Package store persists analysis runs in SQLite: the analyzed units, their
// declared symbols, the filtered relation set and per-unit diagnostics.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  root            TEXT,
  noise           TEXT,
  rules_hash      TEXT,
  started_at      TIMESTAMP NOT NULL,
  finished_at     TIMESTAMP,
  unit_count      INTEGER DEFAULT 0,
  relation_count  INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS units (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  path            TEXT NOT NULL,
  package         TEXT,
  hash            TEXT,
  status          TEXT NOT NULL,
  line_count      INTEGER,
  UNIQUE (run_id, path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  unit_id         INTEGER NOT NULL REFERENCES units(id),
  qualified_name  TEXT NOT NULL,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  type            TEXT,
  modifiers       TEXT,
  implicit        BOOLEAN DEFAULT FALSE,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS relations (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  unit_id         INTEGER NOT NULL REFERENCES units(id),
  kind            TEXT NOT NULL,
  source_qn       TEXT NOT NULL,
  source_kind     TEXT,
  target_qn       TEXT NOT NULL,
  target_kind     TEXT,
  attrs           TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  unit_id         INTEGER NOT NULL REFERENCES units(id),
  kind            TEXT NOT NULL,
  message         TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_units_run ON units(run_id);
CREATE INDEX IF NOT EXISTS idx_symbols_run_qn ON symbols(run_id, qualified_name);
CREATE INDEX IF NOT EXISTS idx_symbols_unit ON symbols(unit_id);
CREATE INDEX IF NOT EXISTS idx_relations_run_source ON relations(run_id, source_qn);
CREATE INDEX IF NOT EXISTS idx_relations_run_target ON relations(run_id, target_qn);
CREATE INDEX IF NOT EXISTS idx_relations_run_kind ON relations(run_id, kind);
CREATE INDEX IF NOT EXISTS idx_relations_unit ON relations(unit_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_unit ON diagnostics(unit_id);
`

// DeleteRun transactionally removes a run and everything recorded under it.
// Deletes in reverse-dependency order to respect FK constraints.
func (s *Store) DeleteRun(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM diagnostics WHERE run_id = ?",
		"DELETE FROM relations WHERE run_id = ?",
		"DELETE FROM symbols WHERE run_id = ?",
		"DELETE FROM units WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
	}
	return tx.Commit()
}

// PruneRuns deletes all but the keep most recently started runs. It returns
// the number of runs deleted.
func (s *Store) PruneRuns(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune runs: keep must be non-negative, got %d", keep)
	}
	rows, err := s.db.Query("SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT -1 OFFSET ?", keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune runs: scan: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	for _, id := range stale {
		if err := s.DeleteRun(id); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
