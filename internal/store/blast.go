package store

import (
	"fmt"
	"sort"
)

// ChangedUnits compares content hashes of a new analysis against a prior
// run. It returns the paths that are new or whose hash differs, and the
// paths the prior run had that are gone. Both are sorted.
func (s *Store) ChangedUnits(prevRunID string, hashes map[string]string) (changed, removed []string, err error) {
	prev, err := s.UnitHashes(prevRunID)
	if err != nil {
		return nil, nil, fmt.Errorf("changed units: %w", err)
	}
	for path, h := range hashes {
		if old, ok := prev[path]; !ok || old != h {
			changed = append(changed, path)
		}
	}
	for path := range prev {
		if _, ok := hashes[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed, nil
}

// UnitsReferencingSymbols returns the paths of a run's units that hold a
// relation targeting any of the given qualified names.
func (s *Store) UnitsReferencingSymbols(runID string, qns []string) ([]string, error) {
	if len(qns) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT u.path
		FROM relations r
		JOIN units u ON u.id = r.unit_id
		WHERE r.run_id = ? AND r.target_qn IN (` + placeholderList(len(qns)) + `)
		ORDER BY u.path`
	rows, err := s.db.Query(query, append([]any{runID}, stringsToArgs(qns)...)...)
	if err != nil {
		return nil, fmt.Errorf("units referencing symbols: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan unit path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// BlastRadius returns the given paths plus every unit of the run whose
// relations point at a symbol declared in one of them, sorted.
func (s *Store) BlastRadius(runID string, paths []string) ([]string, error) {
	result := make(map[string]bool, len(paths))
	var qns []string
	for _, p := range paths {
		result[p] = true
		u, err := s.UnitByPath(runID, p)
		if err != nil {
			return nil, fmt.Errorf("blast radius: %w", err)
		}
		if u == nil {
			continue
		}
		syms, err := s.SymbolsByUnit(u.ID)
		if err != nil {
			return nil, fmt.Errorf("blast radius: %w", err)
		}
		for _, sym := range syms {
			qns = append(qns, sym.QualifiedName)
		}
	}

	// SQLite caps bound parameters; chunk the lookup.
	const chunk = 500
	for start := 0; start < len(qns); start += chunk {
		end := min(start+chunk, len(qns))
		refs, err := s.UnitsReferencingSymbols(runID, qns[start:end])
		if err != nil {
			return nil, fmt.Errorf("blast radius: %w", err)
		}
		for _, p := range refs {
			result[p] = true
		}
	}

	out := make([]string, 0, len(result))
	for p := range result {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
