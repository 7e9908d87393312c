package understory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/filter"
	"github.com/jward/understory/internal/relation"
)

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// newIntegrationEngine creates an Engine backed by a temp DB.
func newIntegrationEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "integration.db")
	e, err := New(append([]Option{WithStore(dbPath)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// TestIntegration_FullPipeline analyzes the whole testdata tree into a store
// and answers queries across its packages.
func TestIntegration_FullPipeline(t *testing.T) {
	t.Parallel()
	e := newIntegrationEngine(t)
	root := filepath.Join(findModuleRoot(t), "testdata", "java")

	report, err := e.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Stats.Units)
	assert.Equal(t, 7, len(report.Changed), "first run marks every unit changed")

	q := e.Query()

	callers, err := q.Callers("p.A.twice(int)")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "p.B.run()", callers[0].Source.QualifiedName)
	assert.Equal(t, "level-01-calls/src/p/B.java", callers[0].Path)

	h, err := q.TypeHierarchy("shapes.Shape")
	require.NoError(t, err)
	require.NotNil(t, h)
	subs := map[string]string{}
	for _, s := range h.Subtypes {
		subs[s.QualifiedName] = s.Kind
	}
	assert.Equal(t, "IMPLEMENT", subs["shapes.Circle"])
	assert.Equal(t, "EXTEND", subs["shapes.Solid"])

	caps, err := q.Captures("c.A.m().lambda$1")
	require.NoError(t, err)
	require.NotEmpty(t, caps)
	assert.Equal(t, "c.A.m().count", caps[0].Target.QualifiedName)

	graph, err := q.PackageDependencyGraph()
	require.NoError(t, err)
	var names []string
	for _, p := range graph.Packages {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"c", "p", "shapes"}, names)
}

// TestIntegration_Reanalyze checks change tracking between runs of the same
// tree.
func TestIntegration_Reanalyze(t *testing.T) {
	t.Parallel()
	e := newIntegrationEngine(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeJavaFile(t, dir, "p/A.java", calleeSrc)
	bPath := writeJavaFile(t, dir, "p/B.java", callerSrc)

	_, err := e.AnalyzeDirectory(ctx, dir)
	require.NoError(t, err)

	second, err := e.AnalyzeDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, second.Changed)
	assert.Empty(t, second.Removed)

	require.NoError(t, os.Remove(bPath))
	writeJavaFile(t, dir, "p/C.java", "package p;\nclass C { int v() { return A.twice(1); } }\n")

	third, err := e.AnalyzeDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"p/C.java"}, third.Changed)
	assert.Equal(t, []string{"p/B.java"}, third.Removed)

	callers, err := e.Query().Callers("p.A.twice(int)")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "p.C.v()", callers[0].Source.QualifiedName)

	runs, err := e.Query().Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

// TestIntegration_RuleFileAndNoise combines a rule file on disk with the
// pure noise level.
func TestIntegration_RuleFileAndNoise(t *testing.T) {
	t.Parallel()
	rulePath := filepath.Join(t.TempDir(), "calls_only.risor")
	require.NoError(t, os.WriteFile(rulePath, []byte(`rel["kind"] == "CALL"`), 0644))

	e := newIntegrationEngine(t, WithRule(rulePath), WithNoise(filter.LevelPure))
	report, err := e.Analyze(context.Background(), projectSources())
	require.NoError(t, err)
	require.NotEmpty(t, report.Relations())
	for _, rel := range report.Relations() {
		assert.Equal(t, relation.Call, rel.Kind)
		assert.False(t, filter.External(rel), "pure drops external targets: %s", rel.Target.QualifiedName)
	}
	assert.Positive(t, report.Stats.Dropped)

	run, err := e.Query().Run()
	require.NoError(t, err)
	assert.NotEmpty(t, run.RulesHash)
	assert.Equal(t, "pure", run.Noise)
}
