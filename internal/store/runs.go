package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("store: no analysis runs recorded")

// BeginRun records the start of a run. An empty ID is filled with a new
// UUID; a zero StartedAt is set to now.
func (s *Store) BeginRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.Exec(
		"INSERT INTO runs (id, root, noise, rules_hash, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Root, run.Noise, run.RulesHash, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and recomputes its counts from the
// committed rows.
func (s *Store) FinishRun(runID string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET
		   finished_at = ?,
		   unit_count = (SELECT COUNT(*) FROM units WHERE run_id = runs.id),
		   relation_count = (SELECT COUNT(*) FROM relations WHERE run_id = runs.id)
		 WHERE id = ?`,
		time.Now(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

const runCols = "id, root, noise, rules_hash, started_at, finished_at, unit_count, relation_count"

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var root, noise, hash sql.NullString
	var finished sql.NullTime
	if err := scanner.Scan(&r.ID, &root, &noise, &hash, &r.StartedAt, &finished, &r.UnitCount, &r.RelationCount); err != nil {
		return nil, err
	}
	r.Root, r.Noise, r.RulesHash = root.String, noise.String, hash.String
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// RunByID returns the run with the given ID, or nil if none exists.
func (s *Store) RunByID(runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runCols+" FROM runs WHERE id = ?", runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently started finished run.
func (s *Store) LatestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow(
		"SELECT " + runCols + " FROM runs WHERE finished_at IS NOT NULL ORDER BY started_at DESC, rowid DESC LIMIT 1",
	))
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// Runs returns every run, newest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runCols + " FROM runs ORDER BY started_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
