package understory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageDependencyGraph(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	graph, err := q.PackageDependencyGraph()
	require.NoError(t, err)

	require.Len(t, graph.Packages, 2)
	assert.Equal(t, "app", graph.Packages[0].Name)
	assert.Equal(t, 1, graph.Packages[0].UnitCount)
	assert.Equal(t, "model", graph.Packages[1].Name)
	assert.Equal(t, 2, graph.Packages[1].UnitCount)
	assert.Positive(t, graph.Packages[1].LineCount)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "app", graph.Edges[0].FromPackage)
	assert.Equal(t, "model", graph.Edges[0].ToPackage)
	assert.GreaterOrEqual(t, graph.Edges[0].RelationCount, 3)
}

func TestPackageDependencyGraph_DefaultPackage(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.Analyze(context.Background(), []Source{
		{Path: "Loose.java", Content: []byte("class Loose { void m() {} }")},
	})
	require.NoError(t, err)

	graph, err := e.Query().PackageDependencyGraph()
	require.NoError(t, err)
	require.Len(t, graph.Packages, 1)
	assert.Equal(t, DefaultPackage, graph.Packages[0].Name)
	assert.Empty(t, graph.Edges)
}

func TestCircularDependencies_None(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueryBuilder(t)

	cycles, err := q.CircularDependencies()
	require.NoError(t, err)
	assert.NotNil(t, cycles)
	assert.Empty(t, cycles)
}

func TestCircularDependencies_Cycle(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.Analyze(context.Background(), []Source{
		{Path: "x/A.java", Content: []byte(`package x;
import y.B;
public class A {
    public static void f() { B.g(); }
}
`)},
		{Path: "y/B.java", Content: []byte(`package y;
import x.A;
public class B {
    public static void g() { A.f(); }
}
`)},
	})
	require.NoError(t, err)

	cycles, err := e.Query().CircularDependencies()
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"x", "y", "x"}, cycles[0])
}

func TestQuery_WithoutStore(t *testing.T) {
	t.Parallel()
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Query().PackageDependencyGraph()
	assert.ErrorIs(t, err, ErrNoStore)
}
