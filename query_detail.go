package understory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jward/understory/internal/relation"
)

// SymbolDetail bundles a declared symbol with its signature relations and
// relation counts. One call replaces several relation lookups.
type SymbolDetail struct {
	Symbol      SymbolResult
	Parameters  []RelationResult // PARAMETER relations, in declaration order
	Returns     []RelationResult // RETURN relations
	Throws      []RelationResult // THROW relations
	Annotations []RelationResult // ANNOTATION relations
	Members     []SymbolResult   // symbols declared directly inside this one
	Outgoing    map[string]int   // relation counts by kind with the symbol as source
	Incoming    map[string]int   // relation counts by kind with the symbol as target
}

// SymbolDetail returns the detail view of the symbol qn. Returns nil with
// no error if qn is not declared in the run.
func (q *QueryBuilder) SymbolDetail(qn string) (*SymbolDetail, error) {
	syms, err := q.matchSymbols(SymbolFilter{Prefix: qn, IncludeImplicit: true})
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	d := &SymbolDetail{
		Outgoing: make(map[string]int),
		Incoming: make(map[string]int),
	}
	found := false
	for _, sym := range syms {
		if sym.QualifiedName == qn {
			d.Symbol = sym
			found = true
			continue
		}
		if isDirectMember(qn, sym.QualifiedName) {
			d.Members = append(d.Members, sym)
		}
	}
	if !found {
		return nil, nil
	}
	sortSymbols(d.Members, Sort{})

	out, err := q.RelationsFrom(qn)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	for _, r := range out {
		d.Outgoing[r.Kind.String()]++
		switch r.Kind {
		case relation.Parameter:
			d.Parameters = append(d.Parameters, r)
		case relation.Return:
			d.Returns = append(d.Returns, r)
		case relation.Throw:
			d.Throws = append(d.Throws, r)
		case relation.Annotation:
			d.Annotations = append(d.Annotations, r)
		}
	}
	in, err := q.RelationsTo(qn)
	if err != nil {
		return nil, fmt.Errorf("symbol detail: %w", err)
	}
	for _, r := range in {
		d.Incoming[r.Kind.String()]++
	}
	return d, nil
}

// isDirectMember reports whether member is declared directly inside owner:
// owner.name or owner.name(...) with no further nesting.
func isDirectMember(owner, member string) bool {
	rest, ok := strings.CutPrefix(member, owner+".")
	if !ok || rest == "" {
		return false
	}
	if i := strings.IndexByte(rest, '('); i >= 0 {
		if strings.IndexByte(rest, ')') != len(rest)-1 {
			return false
		}
		rest = rest[:i]
	}
	return !strings.Contains(rest, ".")
}

// Impact returns the units of the run affected by a change to paths: the
// paths themselves plus every unit holding a relation that targets a symbol
// declared in one of them. The result is sorted.
func (q *QueryBuilder) Impact(paths ...string) ([]string, error) {
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	affected, err := q.store.BlastRadius(runID, paths)
	if err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	sort.Strings(affected)
	return affected, nil
}
