package understory

import (
	"fmt"
	"slices"
	"sort"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/store"
)

// maxGraphDepth caps transitive call graph traversals.
const maxGraphDepth = 100

// CallGraph represents a transitive call graph rooted at a method. Edges
// are bulk-loaded then traversed with BFS; no recursive SQL.
type CallGraph struct {
	Root  string          // qualified name of the starting method
	Nodes []CallGraphNode // all methods reachable within depth, root first
	Edges []CallGraphEdge // all CALL edges between nodes
	Depth int             // actual max depth reached (may be < maxDepth if graph is shallow)
}

// CallGraphNode is a method in the call graph with its distance from the
// root. Path is empty for methods outside the analyzed sources.
type CallGraphNode struct {
	QualifiedName string
	Kind          string
	Path          string
	Depth         int // BFS depth from root (0 = root itself)
}

// CallGraphEdge is a single caller-callee relationship in the call graph.
type CallGraphEdge struct {
	Caller string
	Callee string
	Path   string
	Line   int
	Col    int
}

// callGraphData holds the bulk-loaded CALL adjacency maps.
type callGraphData struct {
	forward map[string][]*store.Relation // caller -> edges
	reverse map[string][]*store.Relation // callee -> edges
	kinds   map[string]string            // qn -> endpoint kind
	paths   map[int64]string             // unit ID -> path
	decl    map[string]string            // qn -> declaring unit path
}

// buildCallGraph bulk-loads every CALL relation and declared symbol of the
// run and builds forward/reverse adjacency maps.
func (q *QueryBuilder) buildCallGraph(runID string) (*callGraphData, error) {
	edges, err := q.store.Relations(runID, store.RelationFilter{Kinds: []string{relation.Call.String()}})
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	paths, err := q.unitPaths(runID)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	syms, err := q.store.SymbolsByPrefix(runID, "")
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}

	data := &callGraphData{
		forward: make(map[string][]*store.Relation),
		reverse: make(map[string][]*store.Relation),
		kinds:   make(map[string]string),
		paths:   paths,
		decl:    make(map[string]string, len(syms)),
	}
	for _, e := range edges {
		data.forward[e.SourceQN] = append(data.forward[e.SourceQN], e)
		data.reverse[e.TargetQN] = append(data.reverse[e.TargetQN], e)
		data.kinds[e.SourceQN] = e.SourceKind
		data.kinds[e.TargetQN] = e.TargetKind
	}
	for _, sym := range syms {
		data.kinds[sym.QualifiedName] = sym.Kind
		data.decl[sym.QualifiedName] = paths[sym.UnitID]
	}
	return data, nil
}

// TransitiveCallers returns all transitive callers of the method qn up to
// maxDepth. maxDepth of 0 returns only the root node (no traversal).
// Negative returns error. Capped at 100. Returns nil, nil if qn is neither
// declared in the run nor part of any CALL relation.
func (q *QueryBuilder) TransitiveCallers(qn string, maxDepth int) (*CallGraph, error) {
	g, err := q.transitive(qn, maxDepth, true)
	if err != nil {
		return nil, fmt.Errorf("transitive callers: %w", err)
	}
	return g, nil
}

// TransitiveCallees returns all transitive callees of the method qn up to
// maxDepth, with the same conventions as TransitiveCallers.
func (q *QueryBuilder) TransitiveCallees(qn string, maxDepth int) (*CallGraph, error) {
	g, err := q.transitive(qn, maxDepth, false)
	if err != nil {
		return nil, fmt.Errorf("transitive callees: %w", err)
	}
	return g, nil
}

func (q *QueryBuilder) transitive(root string, maxDepth int, callers bool) (*CallGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must be non-negative, got %d", maxDepth)
	}
	maxDepth = min(maxDepth, maxGraphDepth)

	runID, err := q.run()
	if err != nil {
		return nil, err
	}
	data, err := q.buildCallGraph(runID)
	if err != nil {
		return nil, err
	}
	if _, ok := data.kinds[root]; !ok {
		return nil, nil
	}

	adj, next := data.forward, func(e *store.Relation) string { return e.TargetQN }
	if callers {
		adj, next = data.reverse, func(e *store.Relation) string { return e.SourceQN }
	}

	result := &CallGraph{Root: root, Edges: []CallGraphEdge{}}
	visited := map[string]int{root: 0}
	order := []string{root}
	var edges []*store.Relation

	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		depth := visited[current]
		if depth >= maxDepth {
			continue
		}
		for _, e := range adj[current] {
			edges = append(edges, e)
			n := next(e)
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = depth + 1
			result.Depth = max(result.Depth, depth+1)
			order = append(order, n)
			queue = append(queue, n)
		}
	}

	for _, qn := range order {
		result.Nodes = append(result.Nodes, CallGraphNode{
			QualifiedName: qn,
			Kind:          data.kinds[qn],
			Path:          data.decl[qn],
			Depth:         visited[qn],
		})
	}
	for _, e := range edges {
		result.Edges = append(result.Edges, CallGraphEdge{
			Caller: e.SourceQN,
			Callee: e.TargetQN,
			Path:   data.paths[e.UnitID],
			Line:   e.Line,
			Col:    e.Col,
		})
	}
	return result, nil
}

// HotspotResult is a declared symbol with its fan-in and fan-out.
type HotspotResult struct {
	Symbol      SymbolResult
	CallerCount int // distinct methods calling this symbol
	CalleeCount int // distinct methods this symbol calls
}

// Hotspots returns the top-N declared symbols by fan-in, counting relations
// of the given kinds (all kinds when none are given). topN of 0 returns an
// empty list. Negative returns error.
func (q *QueryBuilder) Hotspots(topN int, kinds ...relation.Kind) ([]*HotspotResult, error) {
	if topN < 0 {
		return nil, fmt.Errorf("hotspots: topN must be non-negative, got %d", topN)
	}
	if topN == 0 {
		return []*HotspotResult{}, nil
	}
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("hotspots: %w", err)
	}
	syms, err := q.matchSymbols(SymbolFilter{})
	if err != nil {
		return nil, fmt.Errorf("hotspots: %w", err)
	}
	rels, err := q.store.Relations(runID, store.RelationFilter{})
	if err != nil {
		return nil, fmt.Errorf("hotspots: %w", err)
	}

	names := kindNames(kinds)
	fanIn := make(map[string]int)
	callers := make(map[string]map[string]bool)
	callees := make(map[string]map[string]bool)
	for _, r := range rels {
		if len(names) == 0 || slices.Contains(names, r.Kind) {
			fanIn[r.TargetQN]++
		}
		if r.Kind == relation.Call.String() {
			addEdge(callers, r.TargetQN, r.SourceQN)
			addEdge(callees, r.SourceQN, r.TargetQN)
		}
	}

	var items []*HotspotResult
	for _, sym := range syms {
		n := fanIn[sym.QualifiedName]
		if n == 0 {
			continue
		}
		sym.FanIn = n
		items = append(items, &HotspotResult{
			Symbol:      sym,
			CallerCount: len(callers[sym.QualifiedName]),
			CalleeCount: len(callees[sym.QualifiedName]),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Symbol.FanIn != items[j].Symbol.FanIn {
			return items[i].Symbol.FanIn > items[j].Symbol.FanIn
		}
		return items[i].Symbol.QualifiedName < items[j].Symbol.QualifiedName
	})
	if len(items) > topN {
		items = items[:topN]
	}
	if items == nil {
		items = []*HotspotResult{}
	}
	return items, nil
}

func addEdge(m map[string]map[string]bool, from, to string) {
	if m[from] == nil {
		m[from] = make(map[string]bool)
	}
	m[from][to] = true
}

// unusedKinds are symbol kinds that are never the target of a relation by
// construction.
var unusedKinds = []string{"PACKAGE", "LAMBDA", "ANONYMOUS_CLASS", "INITIALIZER"}

// UnusedSymbols returns declared symbols that no relation of the run
// targets. Packages, lambdas, anonymous classes and initializers are
// excluded.
func (q *QueryBuilder) UnusedSymbols(filter SymbolFilter, order Sort, page Pagination) (*PagedResult[SymbolResult], error) {
	syms, err := q.matchSymbols(filter)
	if err != nil {
		return nil, fmt.Errorf("unused symbols: %w", err)
	}
	var items []SymbolResult
	for _, sym := range syms {
		if sym.FanIn == 0 && !slices.Contains(unusedKinds, sym.Kind) {
			items = append(items, sym)
		}
	}
	sortSymbols(items, order)
	return paginate(items, page), nil
}
