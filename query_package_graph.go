package understory

import (
	"fmt"
	"sort"
)

// DefaultPackage names the unnamed package in the dependency graph.
const DefaultPackage = "(default)"

// DependencyGraph is the package-to-package dependency graph, aggregated
// from relations between units.
type DependencyGraph struct {
	Packages []PackageNode
	Edges    []DependencyEdge
}

// PackageNode represents a package in the dependency graph.
type PackageNode struct {
	Name      string
	UnitCount int
	LineCount int
}

// DependencyEdge represents a dependency between two packages with the
// number of relations that contribute to it.
type DependencyEdge struct {
	FromPackage   string
	ToPackage     string
	RelationCount int
}

// PackageDependencyGraph returns the package-to-package dependency graph
// of the run. A relation contributes an edge from the package of the unit
// it was emitted in to the package of the unit declaring its target.
// Targets outside the analyzed sources and same-package relations are
// skipped.
func (q *QueryBuilder) PackageDependencyGraph() (*DependencyGraph, error) {
	runID, err := q.run()
	if err != nil {
		return nil, fmt.Errorf("package dependency graph: %w", err)
	}

	// 1. Package nodes from units.
	units, err := q.store.UnitsByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("package dependency graph: %w", err)
	}
	nodes := map[string]*PackageNode{}
	for _, u := range units {
		name := packageName(u.Package)
		n, ok := nodes[name]
		if !ok {
			n = &PackageNode{Name: name}
			nodes[name] = n
		}
		n.UnitCount++
		n.LineCount += u.LineCount
	}

	// 2. Edges: relation unit package -> declaring unit package of the target.
	rows, err := q.store.DB().Query(
		`SELECT COALESCE(su.package, ''), COALESCE(tu.package, ''), COUNT(*)
		 FROM relations r
		 JOIN units su ON su.id = r.unit_id
		 JOIN (SELECT qualified_name, MIN(unit_id) AS unit_id
		       FROM symbols WHERE run_id = ? GROUP BY qualified_name) s
		   ON s.qualified_name = r.target_qn
		 JOIN units tu ON tu.id = s.unit_id
		 WHERE r.run_id = ?
		 GROUP BY 1, 2`,
		runID, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("package dependency graph: query edges: %w", err)
	}
	defer rows.Close()

	edges := []DependencyEdge{}
	for rows.Next() {
		var from, to string
		var count int
		if err := rows.Scan(&from, &to, &count); err != nil {
			return nil, fmt.Errorf("package dependency graph: scan edge: %w", err)
		}
		if from == to {
			continue
		}
		edges = append(edges, DependencyEdge{
			FromPackage:   packageName(from),
			ToPackage:     packageName(to),
			RelationCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("package dependency graph: edge rows: %w", err)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromPackage != edges[j].FromPackage {
			return edges[i].FromPackage < edges[j].FromPackage
		}
		return edges[i].ToPackage < edges[j].ToPackage
	})

	packages := make([]PackageNode, 0, len(nodes))
	for _, n := range nodes {
		packages = append(packages, *n)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })

	return &DependencyGraph{Packages: packages, Edges: edges}, nil
}

func packageName(pkg string) string {
	if pkg == "" {
		return DefaultPackage
	}
	return pkg
}

// CircularDependencies detects cycles in the package dependency graph using
// Tarjan's strongly connected components algorithm. Each cycle lists its
// packages with the first repeated at the end. Returns an empty list (not
// nil) for acyclic graphs.
func (q *QueryBuilder) CircularDependencies() ([][]string, error) {
	graph, err := q.PackageDependencyGraph()
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}

	adj := map[string][]string{}
	for _, edge := range graph.Edges {
		adj[edge.FromPackage] = append(adj[edge.FromPackage], edge.ToPackage)
	}

	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	result := [][]string{}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				ni.lowlink = min(ni.lowlink, info[w].lowlink)
			} else if wInfo.onStack {
				ni.lowlink = min(ni.lowlink, wInfo.index)
			}
		}

		if ni.lowlink != ni.index {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 {
			// Tarjan pops in reverse.
			for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
				scc[i], scc[j] = scc[j], scc[i]
			}
			result = append(result, append(scc, scc[0]))
		}
	}

	for _, pkg := range graph.Packages {
		if _, visited := info[pkg.Name]; !visited {
			strongconnect(pkg.Name)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result, nil
}
