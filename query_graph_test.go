package understory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
)

func nodeNames(g *CallGraph) []string {
	var out []string
	for _, n := range g.Nodes {
		out = append(out, n.QualifiedName)
	}
	return out
}

// =============================================================================
// TransitiveCallers / TransitiveCallees
// =============================================================================

func TestTransitiveCallers(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.TransitiveCallers(qnArea, 5)
	require.NoError(t, err)
	require.NotNil(t, graph)

	assert.Equal(t, qnArea, graph.Root)
	assert.Equal(t, qnArea, graph.Nodes[0].QualifiedName, "root comes first")
	assert.Equal(t, "model/Shape.java", graph.Nodes[0].Path)
	assert.Equal(t, []string{qnArea, qnTotal, qnMain}, nodeNames(graph))
	assert.Equal(t, 2, graph.Depth)
	assert.Len(t, graph.Edges, 2)
}

func TestTransitiveCallers_DepthLimit(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.TransitiveCallers(qnArea, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{qnArea, qnTotal}, nodeNames(graph))
	assert.Equal(t, 1, graph.Depth)
}

func TestTransitiveCallees(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.TransitiveCallees(qnMain, 5)
	require.NoError(t, err)
	require.NotNil(t, graph)

	names := nodeNames(graph)
	assert.Equal(t, qnMain, names[0])
	assert.Contains(t, names, qnTotal)
	assert.Contains(t, names, qnHelper)
	assert.Contains(t, names, qnArea)
	for _, n := range graph.Nodes {
		if n.QualifiedName == qnArea {
			assert.Equal(t, 2, n.Depth)
		}
	}
	for _, e := range graph.Edges {
		assert.NotEmpty(t, e.Path)
		assert.Positive(t, e.Line)
	}
}

func TestTransitive_DepthZero(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.TransitiveCallees(qnMain, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{qnMain}, nodeNames(graph))
	assert.Empty(t, graph.Edges)
	assert.Equal(t, 0, graph.Depth)
}

func TestTransitive_NegativeDepth(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	_, err := q.TransitiveCallers(qnArea, -1)
	assert.Error(t, err)
	_, err = q.TransitiveCallees(qnMain, -1)
	assert.Error(t, err)
}

func TestTransitive_UnknownSymbol(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.TransitiveCallers("no.such.method()", 3)
	require.NoError(t, err)
	assert.Nil(t, graph)
}

// =============================================================================
// Hotspots
// =============================================================================

func TestHotspots(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	hot, err := q.Hotspots(50, relation.Call)
	require.NoError(t, err)
	require.NotEmpty(t, hot)

	for i := 1; i < len(hot); i++ {
		assert.GreaterOrEqual(t, hot[i-1].Symbol.FanIn, hot[i].Symbol.FanIn)
	}
	var total *HotspotResult
	for _, h := range hot {
		if h.Symbol.QualifiedName == qnTotal {
			total = h
		}
	}
	require.NotNil(t, total)
	assert.Equal(t, 1, total.Symbol.FanIn)
	assert.Equal(t, 1, total.CallerCount)
	assert.Equal(t, 1, total.CalleeCount)
	assert.Equal(t, "app/Main.java", total.Symbol.Path)
}

func TestHotspots_TopN(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	hot, err := q.Hotspots(1)
	require.NoError(t, err)
	assert.Len(t, hot, 1)

	hot, err = q.Hotspots(0)
	require.NoError(t, err)
	assert.NotNil(t, hot)
	assert.Empty(t, hot)

	_, err = q.Hotspots(-1)
	assert.Error(t, err)
}

// =============================================================================
// UnusedSymbols
// =============================================================================

func TestUnusedSymbols(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	page, err := q.UnusedSymbols(SymbolFilter{Prefix: "app.Main"}, Sort{}, Pagination{Limit: maxLimit})
	require.NoError(t, err)

	var names []string
	for _, s := range page.Items {
		names = append(names, s.QualifiedName)
		assert.NotEqual(t, "LAMBDA", s.Kind)
	}
	assert.Contains(t, names, qnMain)
	assert.Contains(t, names, qnMain+".args")
	assert.NotContains(t, names, qnTotal)
	assert.NotContains(t, names, qnHelper)
	assert.NotContains(t, names, qnHelper+".count")
}
