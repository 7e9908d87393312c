package understory

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jward/understory/internal/store"
)

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName  SortField = "name"
	SortByKind  SortField = "kind"
	SortByPath  SortField = "path"
	SortByFanIn SortField = "fan_in"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

func paginate[T any](items []T, page Pagination) *PagedResult[T] {
	page = page.normalize()
	total := len(items)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return &PagedResult[T]{Items: out, TotalCount: total}
}

// SymbolResult extends Symbol with computed fields useful for discovery.
type SymbolResult struct {
	store.Symbol
	Path  string // path of the declaring unit
	FanIn int    // relations of any kind targeting this symbol
}

// SymbolFilter specifies which symbols to include.
type SymbolFilter struct {
	Prefix          string   // qualified name prefix
	Kinds           []string // match any of these kinds
	PathPrefix      string   // declaring unit path prefix
	IncludeImplicit bool     // include implicit members such as default constructors
}

// Symbols returns one page of the run's declared symbols matching filter.
// The default order is by qualified name.
func (q *QueryBuilder) Symbols(filter SymbolFilter, order Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	items, err := q.matchSymbols(filter)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	sortSymbols(items, order)
	return paginate(items, page), nil
}

// matchSymbols loads the run's symbols matching filter with their paths
// and fan-in.
func (q *QueryBuilder) matchSymbols(filter SymbolFilter) ([]SymbolResult, error) {
	runID, err := q.run()
	if err != nil {
		return nil, err
	}
	syms, err := q.store.SymbolsByPrefix(runID, filter.Prefix)
	if err != nil {
		return nil, err
	}
	paths, err := q.unitPaths(runID)
	if err != nil {
		return nil, err
	}
	fanIn, err := q.targetCounts(runID)
	if err != nil {
		return nil, err
	}

	var items []SymbolResult
	for _, sym := range syms {
		if sym.Implicit && !filter.IncludeImplicit {
			continue
		}
		if len(filter.Kinds) > 0 && !slices.Contains(filter.Kinds, sym.Kind) {
			continue
		}
		path := paths[sym.UnitID]
		if filter.PathPrefix != "" && !strings.HasPrefix(path, filter.PathPrefix) {
			continue
		}
		items = append(items, SymbolResult{Symbol: *sym, Path: path, FanIn: fanIn[sym.QualifiedName]})
	}
	return items, nil
}

func sortSymbols(items []SymbolResult, order Sort) {
	less := func(a, b SymbolResult) int {
		switch order.Field {
		case SortByName:
			return strings.Compare(a.Name, b.Name)
		case SortByKind:
			return strings.Compare(a.Kind, b.Kind)
		case SortByPath:
			return strings.Compare(a.Path, b.Path)
		case SortByFanIn:
			return a.FanIn - b.FanIn
		}
		return 0
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if order.Order == Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return items[i].QualifiedName < items[j].QualifiedName
	})
}

// targetCounts returns, per target qualified name, how many relations of the
// run point at it.
func (q *QueryBuilder) targetCounts(runID string) (map[string]int, error) {
	rows, err := q.store.DB().Query(
		"SELECT target_qn, COUNT(*) FROM relations WHERE run_id = ? GROUP BY target_qn", runID)
	if err != nil {
		return nil, fmt.Errorf("target counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var qn string
		var n int
		if err := rows.Scan(&qn, &n); err != nil {
			return nil, fmt.Errorf("target counts: scan: %w", err)
		}
		counts[qn] = n
	}
	return counts, rows.Err()
}

// Units returns one page of the run's units whose path starts with
// pathPrefix, ordered by path.
func (q *QueryBuilder) Units(pathPrefix string, page Pagination) (*PagedResult[*Unit], error) {
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	units, err := q.store.UnitsByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	var items []*Unit
	for _, u := range units {
		if strings.HasPrefix(u.Path, pathPrefix) {
			items = append(items, u)
		}
	}
	return paginate(items, page), nil
}

// Diagnostics returns the diagnostics recorded for the unit at path, or
// nil if the run has no such unit.
func (q *QueryBuilder) Diagnostics(path string) ([]*Diagnostic, error) {
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	u, err := q.store.UnitByPath(runID, path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	diags, err := q.store.DiagnosticsByUnit(u.ID)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	return diags, nil
}
