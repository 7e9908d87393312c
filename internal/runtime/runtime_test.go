package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
)

const javaTestSource = `package com.example;

import java.util.List;

public class Greeter {
    private String name;

    public String greet(String other) {
        return String.format("Hello, %s!", other);
    }

    public int add(int a, int b) {
        return a + b;
    }
}
`

// parseJavaSource parses Java source and registers it in a Runtime's source
// store.
func parseJavaSource(t *testing.T, src string) (*sitter.Tree, *Runtime) {
	t.Helper()

	rt := NewRuntime("")
	tree, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	rt.sources.store(tree, []byte(src))
	return tree, rt
}

func writeJava(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Greeter.java")
	require.NoError(t, os.WriteFile(path, []byte(javaTestSource), 0644))
	return path
}

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"App.java", "java", true},
		{"path/to/App.JAVA", "java", true},
		{"main.go", "", false},
		{"App.class", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()

	l, ok := ParserForLanguage("java")
	require.True(t, ok)
	assert.NotNil(t, l)

	_, ok = ParserForLanguage("cobol")
	assert.False(t, ok)
}

// --- Parse tests ---

func TestParse_ReturnsProgram(t *testing.T) {
	t.Parallel()

	tree, err := Parse(context.Background(), []byte(javaTestSource))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	require.NotNil(t, root)
	assert.Equal(t, "program", root.Type())
	assert.False(t, root.HasError())
}

func TestParse_InvalidSourceStillReturnsTree(t *testing.T) {
	t.Parallel()

	tree, err := Parse(context.Background(), []byte("class { void ( }"))
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := writeJava(t)
	tree, src, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, javaTestSource, string(src))
	assert.Equal(t, "program", tree.RootNode().Type())
}

func TestParseFile_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "Nope.java"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

// --- source store tests ---

func TestSourceStore_RecoversSourceFromDescendant(t *testing.T) {
	tree, rt := parseJavaSource(t, javaTestSource)
	defer tree.Close()

	root := tree.RootNode()
	var class *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if c := root.NamedChild(i); c.Type() == "class_declaration" {
			class = c
		}
	}
	require.NotNil(t, class)

	name := class.ChildByFieldName("name")
	src, ok := rt.sources.sourceForNode(name)
	require.True(t, ok)
	assert.Equal(t, "Greeter", name.Content(src))
}

func TestSourceStore_CachesQueries(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	defer rt.Close()

	q1, err := rt.sources.query("(identifier) @id")
	require.NoError(t, err)
	q2, err := rt.sources.query("(identifier) @id")
	require.NoError(t, err)
	assert.Same(t, q1, q2)

	_, err = rt.sources.query("(not_a_real_node_type @x)")
	assert.Error(t, err)
}

// --- Host functions via scripts ---

func TestRunSource_ParseAndQuery(t *testing.T) {
	rt := NewRuntime("")

	script := `
tree := parse(test_file)
root := tree.RootNode()

matches := query("(method_declaration name: (identifier) @name)", root)
assert(len(matches) == 2, 'expected 2 methods, got {len(matches)}')
assert(node_text(matches[0]["name"]) == "greet")
assert(node_text(matches[1]["name"]) == "add")
`
	_, err := rt.RunSource(context.Background(), script, map[string]any{
		"test_file": writeJava(t),
	})
	require.NoError(t, err)
}

func TestRunSource_ParseSrcSnippet(t *testing.T) {
	rt := NewRuntime("")

	script := `
tree := parse_src("class A { void m() { b.c(); } }")
calls := query("(method_invocation) @call", tree.RootNode())
node_text(calls[0]["call"])
`
	res, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	s, ok := res.(*object.String)
	require.True(t, ok)
	assert.Equal(t, "b.c()", s.Value())
}

func TestRunSource_NodeChild(t *testing.T) {
	rt := NewRuntime("")

	script := `
tree := parse_src("class A extends B {}")
decl := tree.RootNode().NamedChild(0)
assert(node_text(node_child(decl, "name")) == "A")
assert(node_child(decl, "interfaces") == nil)
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_QueryInvalidPattern(t *testing.T) {
	rt := NewRuntime("")

	script := `
tree := parse_src("class A {}")
query("(not_a_real_node_type @x)", tree.RootNode())
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.Error(t, err)
}

func TestRunSource_ParseMissingFile(t *testing.T) {
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `parse("/does/not/exist.java")`, nil)
	require.Error(t, err)
}

func TestRunSource_ReturnsLastValue(t *testing.T) {
	rt := NewRuntime("")

	res, err := rt.RunSource(context.Background(), `1 + 2`, nil)
	require.NoError(t, err)
	i, ok := res.(*object.Int)
	require.True(t, ok)
	assert.Equal(t, int64(3), i.Value())
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`1 + 1`), 0644))

	rt := NewRuntime(dir)
	_, err := rt.RunScript(context.Background(), "test.risor", nil)
	require.NoError(t, err)
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(t.TempDir())
	_, err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"rules/keep.risor": &fstest.MapFile{Data: []byte(`true`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("rules/keep.risor")
	require.NoError(t, err)
	assert.Equal(t, "true", got)

	got, err = rt.LoadScript("/rules/keep.risor")
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`z := 7`), 0644))

	rt := NewRuntime(dir)
	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, `z := 7`, got)
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.rulesDir)
	assert.NotNil(t, rt.logger)
	for _, name := range []string{"parse", "parse_src", "node_text", "node_child", "query", "log"} {
		assert.Contains(t, rt.host, name)
	}
}

func TestRunSource_ExtraGlobalsDoNotLeak(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	_, err := rt.RunSource(context.Background(), `x + 1`, map[string]any{"x": object.NewInt(1)})
	require.NoError(t, err)
	assert.NotContains(t, rt.host, "x")

	_, err = rt.RunSource(context.Background(), `x + 1`, nil)
	require.Error(t, err)
}

// --- Importers ---

func TestImport_FSImporter(t *testing.T) {
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func is_jdk(name) {
	return name.has_prefix("java.")
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	script := `
import lib_helpers
assert(lib_helpers.is_jdk("java.lang.String"))
assert(!lib_helpers.is_jdk("com.example.A"))
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(dir)
	script := `
import math_utils
result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func do_log(msg) {
	log.Info(msg)
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	_, err := rt.RunSource(context.Background(), "import helper\nhelper.do_log(\"test message\")", nil)
	require.NoError(t, err)
}

// --- Rules ---

func callRelation() relation.Relation {
	return relation.Relation{
		Source: relation.Endpoint{QualifiedName: "com.example.A.run()", Kind: "METHOD"},
		Target: relation.Endpoint{QualifiedName: "java.io.PrintStream.println", Kind: "METHOD"},
		Kind:   relation.Call,
		Attrs: relation.Attrs{
			relation.External:      true,
			relation.CallArgsCount: 1,
			relation.RawText:       "System.out.println(x)",
		},
		Span: relation.Span{Line: 4, Col: 8},
	}
}

func TestKeep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"kind", `rel["kind"] == "CALL"`, true},
		{"target", `rel["target"].has_prefix("com.example.")`, false},
		{"source kind", `rel["source_kind"] == "METHOD"`, true},
		{"attr short name", `attr("external") == true`, true},
		{"attr full name", `attr("java.rel.call.args_count") == 1`, true},
		{"missing attr", `attr("unresolved") == nil`, true},
		{"has_attr", `has_attr("call.receiver")`, false},
		{"attrs map", `rel["attrs"]["java.rel.raw_text"] == "System.out.println(x)"`, true},
		{"line", `rel["line"] == 4`, true},
		{"empty string is falsy", `""`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rt := NewRuntime("")
			got, err := rt.Keep(context.Background(), Rule{Name: tt.name, Source: tt.src}, callRelation())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeep_ScriptError(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	_, err := rt.Keep(context.Background(), Rule{Name: "broken", Source: `attr()`}, callRelation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestKeep_ParsesRawText(t *testing.T) {
	t.Parallel()

	rule := Rule{Name: "chained", Source: `
tree := parse_src("class X { void m() { " + attr("raw_text") + "; } }")
len(query("(method_invocation object: (field_access)) @c", tree.RootNode())) > 0
`}
	rt := NewRuntime("")
	got, err := rt.Keep(context.Background(), rule, callRelation())
	require.NoError(t, err)
	assert.True(t, got)
}

func TestLoadRule(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"no_jdk.risor": &fstest.MapFile{Data: []byte(`!rel["target"].has_prefix("java.")`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	rule, err := rt.LoadRule("no_jdk.risor")
	require.NoError(t, err)
	assert.Equal(t, "no_jdk", rule.Name)

	keep, err := rt.Keep(context.Background(), rule, callRelation())
	require.NoError(t, err)
	assert.False(t, keep)
}
