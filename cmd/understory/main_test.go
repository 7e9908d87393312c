package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/config"
	"github.com/jward/understory/internal/relation"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	assert.Equal(t, filepath.Join(root, ".understory", "index.db"), resolveDBPath(root, nil))
	assert.Equal(t, filepath.Join(root, ".understory", "index.db"), resolveDBPath(root, config.Default()))

	cfgPath := filepath.Join(root, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("db: data/graph.db\n"), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data", "graph.db"), resolveDBPath(root, cfg))
}

func TestResolveTargetDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveTargetDir([]string{filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "directory not found")

	file := filepath.Join(dir, "A.java")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = resolveTargetDir([]string{file})
	assert.ErrorContains(t, err, "not a directory")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
		_, err := newLogger(level)
		assert.NoError(t, err, level)
	}
	_, err := newLogger("chatty")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"CALL", "USE"}, splitList(" CALL, ,USE "))
	assert.Nil(t, splitList(""))
}

func TestParseKinds(t *testing.T) {
	t.Parallel()

	kinds, err := parseKinds("call,CAPTURE")
	require.NoError(t, err)
	assert.Equal(t, []relation.Kind{relation.Call, relation.Capture}, kinds)

	kinds, err = parseKinds("")
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = parseKinds("CALL,NOPE")
	assert.Error(t, err)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateFormat(""))
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("mermaid"))
}

func TestWriteResultText_Relations(t *testing.T) {
	t.Parallel()
	total := 5
	var buf bytes.Buffer
	err := writeResultText(&buf, CLIResult{
		Command: "kind",
		Results: []CLIRelation{
			{Kind: "CALL", Source: "p.B.run()", Target: "p.A.twice(int)", File: "p/B.java", Line: 2, Col: 30},
		},
		TotalCount: &total,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "p.B.run()")
	assert.Contains(t, out, "p.A.twice(int)")
	assert.Contains(t, out, "Showing 1 of 5 results")
}

func TestWriteResultText_Cycles(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, writeResultText(&buf, CLIResult{Results: [][]string{{"x", "y", "x"}}}))
	assert.Equal(t, "x -> y -> x\n", buf.String())
}

func TestWriteResultText_Unsupported(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Error(t, writeResultText(&buf, CLIResult{Results: 42}))
}
