package understory

import (
	"fmt"
	"slices"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/store"
)

// TypeRelation is a type reached from the queried type through EXTEND and
// IMPLEMENT relations.
type TypeRelation struct {
	QualifiedName string
	Kind          string // kind of the relation that reached it: EXTEND or IMPLEMENT
	SymbolKind    string // CLASS, INTERFACE, ...; the target kind for external types
	Path          string // declaring unit, empty for external types
	Depth         int    // 1 for direct supertypes or subtypes
}

// TypeHierarchy is the inheritance view of a single type.
type TypeHierarchy struct {
	QualifiedName string
	Symbol        *SymbolResult   // nil when the type is not declared in the run
	Supertypes    []*TypeRelation // transitive, breadth-first
	Subtypes      []*TypeRelation // transitive, breadth-first
}

// TypeHierarchy returns the transitive supertypes and subtypes of the type
// qn. Returns nil with no error if qn is neither declared in the run nor
// part of any EXTEND or IMPLEMENT relation.
func (q *QueryBuilder) TypeHierarchy(qn string) (*TypeHierarchy, error) {
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	rels, err := q.store.Relations(runID, store.RelationFilter{
		Kinds: []string{relation.Extend.String(), relation.Implement.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	syms, err := q.matchSymbols(SymbolFilter{})
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	declared := make(map[string]*SymbolResult, len(syms))
	for i := range syms {
		declared[syms[i].QualifiedName] = &syms[i]
	}

	up := make(map[string][]*store.Relation)
	down := make(map[string][]*store.Relation)
	known := false
	for _, r := range rels {
		up[r.SourceQN] = append(up[r.SourceQN], r)
		down[r.TargetQN] = append(down[r.TargetQN], r)
		if r.SourceQN == qn || r.TargetQN == qn {
			known = true
		}
	}
	h := &TypeHierarchy{QualifiedName: qn, Symbol: declared[qn]}
	if h.Symbol == nil && !known {
		return nil, nil
	}

	h.Supertypes = walkTypes(qn, up, declared, func(r *store.Relation) (string, string) {
		return r.TargetQN, r.TargetKind
	})
	h.Subtypes = walkTypes(qn, down, declared, func(r *store.Relation) (string, string) {
		return r.SourceQN, r.SourceKind
	})
	return h, nil
}

func walkTypes(root string, adj map[string][]*store.Relation, declared map[string]*SymbolResult,
	next func(*store.Relation) (string, string)) []*TypeRelation {
	out := []*TypeRelation{}
	visited := map[string]bool{root: true}
	type entry struct {
		qn    string
		depth int
	}
	queue := []entry{{qn: root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range adj[cur.qn] {
			qn, kind := next(r)
			if visited[qn] {
				continue
			}
			visited[qn] = true
			tr := &TypeRelation{QualifiedName: qn, Kind: r.Kind, SymbolKind: kind, Depth: cur.depth + 1}
			if sym := declared[qn]; sym != nil {
				tr.SymbolKind = sym.Kind
				tr.Path = sym.Path
			}
			out = append(out, tr)
			queue = append(queue, entry{qn: qn, depth: cur.depth + 1})
		}
	}
	return out
}

// concreteKinds are the type kinds that can implement an interface at
// runtime.
var concreteKinds = []string{"CLASS", "ENUM", "RECORD", "ANONYMOUS_CLASS"}

// Implementations returns the non-interface subtypes of the type qn,
// direct or inherited.
func (q *QueryBuilder) Implementations(qn string) ([]*TypeRelation, error) {
	h, err := q.TypeHierarchy(qn)
	if err != nil {
		return nil, fmt.Errorf("implementations: %w", err)
	}
	if h == nil {
		return nil, nil
	}
	var out []*TypeRelation
	for _, t := range h.Subtypes {
		if slices.Contains(concreteKinds, t.SymbolKind) {
			out = append(out, t)
		}
	}
	return out, nil
}
