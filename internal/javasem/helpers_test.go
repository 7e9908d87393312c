package javasem

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/runtime"
)

func parseUnit(t *testing.T, path, src string) Unit {
	t.Helper()
	tree, err := runtime.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Unit{Path: path, Source: []byte(src), Tree: tree}
}

// analyze parses and resolves each source as its own unit.
func analyze(t *testing.T, sources ...string) []*Result {
	t.Helper()
	units := make([]Unit, len(sources))
	for i, src := range sources {
		units[i] = parseUnit(t, fmt.Sprintf("Unit%d.java", i), src)
	}
	results, _ := Analyze(units)
	require.Len(t, results, len(sources))
	return results
}

// analyzeOne resolves a single source and returns its relations.
func analyzeOne(t *testing.T, src string) *Result {
	t.Helper()
	res := analyze(t, src)[0]
	require.NotEqual(t, StatusFailed, res.Status, "diagnostics: %v", res.Diagnostics)
	return res
}

// selectRels returns the relations of kind k whose source and target match.
// Empty source or target match anything.
func selectRels(rels []relation.Relation, k relation.Kind, source, target string) []relation.Relation {
	return relation.Filter(rels, func(r relation.Relation) bool {
		return r.Kind == k &&
			(source == "" || r.Source.QualifiedName == source) &&
			(target == "" || r.Target.QualifiedName == target)
	})
}

func requireOne(t *testing.T, rels []relation.Relation, k relation.Kind, source, target string) relation.Relation {
	t.Helper()
	got := selectRels(rels, k, source, target)
	require.Len(t, got, 1, "%s %s -> %s in %v", k, source, target, rels)
	return got[0]
}

func hasDiag(res *Result, kind DiagKind) bool {
	for _, d := range res.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
