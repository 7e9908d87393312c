package store

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) unit IDs are remapped to
// real (positive) IDs and every record referencing a buffered unit is
// rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Units (depend on run_id, which must already exist)
//  2. Symbols (depend on unit_id)
//  3. Relations (depend on unit_id)
//  4. Diagnostics (depend on unit_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Units))
	unitID := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		mapped, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("unit_id=%d not in fakeToReal map (have %d units)", id, len(batch.Units))
		}
		return mapped, nil
	}

	// 1. Units
	for _, u := range batch.Units {
		realID, err := insertUnitTx(tx, &u)
		if err != nil {
			return fmt.Errorf("commit batch: unit %q: %w", u.Path, err)
		}
		fakeToReal[u.ID] = realID
	}

	// 2. Symbols
	for _, sym := range batch.Symbols {
		if sym.UnitID, err = unitID(sym.UnitID); err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.QualifiedName, err)
		}
		if _, err := insertSymbolTx(tx, &sym); err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.QualifiedName, err)
		}
	}

	// 3. Relations
	for _, r := range batch.Relations {
		if r.UnitID, err = unitID(r.UnitID); err != nil {
			return fmt.Errorf("commit batch: relation %s -> %s: %w", r.SourceQN, r.TargetQN, err)
		}
		if _, err := insertRelationTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: relation %s -> %s: %w", r.SourceQN, r.TargetQN, err)
		}
	}

	// 4. Diagnostics
	for _, d := range batch.Diagnostics {
		if d.UnitID, err = unitID(d.UnitID); err != nil {
			return fmt.Errorf("commit batch: diagnostic: %w", err)
		}
		if _, err := insertDiagnosticTx(tx, &d); err != nil {
			return fmt.Errorf("commit batch: diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// --- Insert helpers ---
// These accept an execer so the Store methods and CommitBatch share them.

func insertUnitTx(ex execer, u *Unit) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO units (run_id, path, package, hash, status, line_count) VALUES (?, ?, ?, ?, ?, ?)`,
		u.RunID, u.Path, u.Package, u.Hash, u.Status, u.LineCount,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSymbolTx(ex execer, sym *Symbol) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO symbols (run_id, unit_id, qualified_name, name, kind, type, modifiers, implicit,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.RunID, sym.UnitID, sym.QualifiedName, sym.Name, sym.Kind, sym.Type,
		marshalModifiers(sym.Modifiers), sym.Implicit,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertRelationTx(ex execer, r *Relation) (int64, error) {
	attrs, err := marshalAttrs(r.Attrs)
	if err != nil {
		return 0, fmt.Errorf("marshal attrs: %w", err)
	}
	res, err := ex.Exec(
		`INSERT INTO relations (run_id, unit_id, kind, source_qn, source_kind, target_qn, target_kind, attrs, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.UnitID, r.Kind, r.SourceQN, r.SourceKind, r.TargetQN, r.TargetKind, attrs, r.Line, r.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnosticTx(ex execer, d *Diagnostic) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO diagnostics (run_id, unit_id, kind, message, line, col) VALUES (?, ?, ?, ?, ?, ?)`,
		d.RunID, d.UnitID, d.Kind, d.Message, d.Line, d.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
