package store

import (
	"database/sql"
	"fmt"
	"strings"
)

func (s *Store) InsertRelation(r *Relation) (int64, error) {
	id, err := insertRelationTx(s.db, r)
	if err != nil {
		return 0, fmt.Errorf("insert relation: %w", err)
	}
	r.ID = id
	return id, nil
}

// RelationFilter narrows a relation query. Zero fields match everything.
type RelationFilter struct {
	Source string
	Target string
	Kinds  []string
	UnitID int64
	Limit  int
}

const relationCols = "id, run_id, unit_id, kind, source_qn, source_kind, target_qn, target_kind, attrs, line, col"

func scanRelation(scanner interface{ Scan(...any) error }) (*Relation, error) {
	r := &Relation{}
	var srcKind, tgtKind, attrs sql.NullString
	err := scanner.Scan(&r.ID, &r.RunID, &r.UnitID, &r.Kind, &r.SourceQN, &srcKind,
		&r.TargetQN, &tgtKind, &attrs, &r.Line, &r.Col)
	if err != nil {
		return nil, err
	}
	r.SourceKind, r.TargetKind = srcKind.String, tgtKind.String
	r.Attrs, err = unmarshalAttrs(attrs.String)
	if err != nil {
		return nil, fmt.Errorf("relation %d attrs: %w", r.ID, err)
	}
	return r, nil
}

// Relations returns a run's relations matching f in insertion order.
func (s *Store) Relations(runID string, f RelationFilter) ([]*Relation, error) {
	var (
		where = []string{"run_id = ?"}
		args  = []any{runID}
	)
	if f.Source != "" {
		where = append(where, "source_qn = ?")
		args = append(args, f.Source)
	}
	if f.Target != "" {
		where = append(where, "target_qn = ?")
		args = append(args, f.Target)
	}
	if len(f.Kinds) > 0 {
		where = append(where, "kind IN ("+placeholderList(len(f.Kinds))+")")
		args = append(args, stringsToArgs(f.Kinds)...)
	}
	if f.UnitID != 0 {
		where = append(where, "unit_id = ?")
		args = append(args, f.UnitID)
	}
	query := "SELECT " + relationCols + " FROM relations WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("relations: %w", err)
	}
	defer rows.Close()
	var rels []*Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// KindCounts returns relation counts per kind for a run.
func (s *Store) KindCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM relations WHERE run_id = ? GROUP BY kind", runID)
	if err != nil {
		return nil, fmt.Errorf("kind counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}
