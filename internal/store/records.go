package store

import (
	"database/sql"
	"fmt"
)

// --- Unit operations ---

func (s *Store) InsertUnit(u *Unit) (int64, error) {
	id, err := insertUnitTx(s.db, u)
	if err != nil {
		return 0, fmt.Errorf("insert unit: %w", err)
	}
	u.ID = id
	return id, nil
}

const unitCols = "id, run_id, path, package, hash, status, line_count"

func scanUnit(scanner interface{ Scan(...any) error }) (*Unit, error) {
	u := &Unit{}
	var pkg, hash sql.NullString
	var lines sql.NullInt64
	if err := scanner.Scan(&u.ID, &u.RunID, &u.Path, &pkg, &hash, &u.Status, &lines); err != nil {
		return nil, err
	}
	u.Package = pkg.String
	u.Hash = hash.String
	u.LineCount = int(lines.Int64)
	return u, nil
}

// UnitByPath returns the unit analyzed at path in a run, or nil.
func (s *Store) UnitByPath(runID, path string) (*Unit, error) {
	u, err := scanUnit(s.db.QueryRow("SELECT "+unitCols+" FROM units WHERE run_id = ? AND path = ?", runID, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unit by path: %w", err)
	}
	return u, nil
}

// UnitsByRun returns a run's units ordered by path.
func (s *Store) UnitsByRun(runID string) ([]*Unit, error) {
	rows, err := s.db.Query("SELECT "+unitCols+" FROM units WHERE run_id = ? ORDER BY path", runID)
	if err != nil {
		return nil, fmt.Errorf("units by run: %w", err)
	}
	defer rows.Close()
	var units []*Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// UnitHashes returns path -> content hash for a run.
func (s *Store) UnitHashes(runID string) (map[string]string, error) {
	units, err := s.UnitsByRun(runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(units))
	for _, u := range units {
		out[u.Path] = u.Hash
	}
	return out, nil
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbolTx(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// SymbolCols is the column list for symbol queries.
const SymbolCols = `id, run_id, unit_id, qualified_name, name, kind, type, modifiers, implicit,
	start_line, start_col, end_line, end_col`

// ScanSymbolRow scans a single row selected with SymbolCols.
func ScanSymbolRow(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var typ, mods sql.NullString
	err := scanner.Scan(
		&sym.ID, &sym.RunID, &sym.UnitID, &sym.QualifiedName, &sym.Name, &sym.Kind,
		&typ, &mods, &sym.Implicit,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
	)
	if err != nil {
		return nil, err
	}
	sym.Type = typ.String
	sym.Modifiers = unmarshalModifiers(mods.String)
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := ScanSymbolRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolsByUnit returns a unit's symbols in declaration order.
func (s *Store) SymbolsByUnit(unitID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE unit_id = ? ORDER BY id", unitID)
}

// SymbolsByPrefix returns a run's symbols whose qualified name starts with
// prefix, ordered by qualified name. An empty prefix matches everything.
func (s *Store) SymbolsByPrefix(runID, prefix string) ([]*Symbol, error) {
	if prefix == "" {
		return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE run_id = ? ORDER BY qualified_name", runID)
	}
	return s.querySymbols(
		"SELECT "+SymbolCols+" FROM symbols WHERE run_id = ? AND instr(qualified_name, ?) = 1 ORDER BY qualified_name",
		runID, prefix,
	)
}

// SymbolByQN returns the symbol with the exact qualified name, or nil.
func (s *Store) SymbolByQN(runID, qn string) (*Symbol, error) {
	syms, err := s.querySymbols(
		"SELECT "+SymbolCols+" FROM symbols WHERE run_id = ? AND qualified_name = ? ORDER BY id LIMIT 1", runID, qn,
	)
	if err != nil {
		return nil, fmt.Errorf("symbol by qn: %w", err)
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return syms[0], nil
}

// --- Diagnostic operations ---

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	id, err := insertDiagnosticTx(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	d.ID = id
	return id, nil
}

// DiagnosticsByUnit returns a unit's diagnostics in position order.
func (s *Store) DiagnosticsByUnit(unitID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, unit_id, kind, message, line, col FROM diagnostics WHERE unit_id = ? ORDER BY line, col, id",
		unitID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by unit: %w", err)
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		var msg sql.NullString
		if err := rows.Scan(&d.ID, &d.RunID, &d.UnitID, &d.Kind, &msg, &d.Line, &d.Col); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Message = msg.String
		diags = append(diags, d)
	}
	return diags, rows.Err()
}
