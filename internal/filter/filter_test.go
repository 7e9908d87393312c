package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/runtime"
)

func rel(kind relation.Kind, target, targetKind string, attrs relation.Attrs) relation.Relation {
	if attrs == nil {
		attrs = relation.Attrs{}
	}
	return relation.Relation{
		Source: relation.Endpoint{QualifiedName: "com.example.A.m()", Kind: "METHOD"},
		Target: relation.Endpoint{QualifiedName: target, Kind: targetKind},
		Kind:   kind,
		Attrs:  attrs,
	}
}

func sample() []relation.Relation {
	return []relation.Relation{
		rel(relation.Call, "com.example.B.run()", "METHOD", nil),
		rel(relation.Call, "java.io.PrintStream.println", "METHOD", relation.Attrs{relation.External: true}),
		rel(relation.Use, "missing", "UNKNOWN", relation.Attrs{relation.Unresolved: true}),
		rel(relation.Return, "int", "PRIMITIVE", nil),
		rel(relation.Throw, "java.io.IOException", "CLASS", relation.Attrs{relation.External: true}),
		rel(relation.Capture, "com.example.A.m().x", "VARIABLE", nil),
	}
}

func targets(rels []relation.Relation) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Target.QualifiedName
	}
	return out
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelRaw, false},
		{"raw", LevelRaw, false},
		{"balanced", LevelBalanced, false},
		{"pure", LevelPure, false},
		{"strict", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level Level
		want  []string
	}{
		{LevelRaw, []string{
			"com.example.B.run()", "java.io.PrintStream.println", "missing",
			"int", "java.io.IOException", "com.example.A.m().x",
		}},
		{LevelBalanced, []string{"com.example.B.run()", "java.io.IOException", "com.example.A.m().x"}},
		{LevelPure, []string{"com.example.B.run()", "com.example.A.m().x"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			got, err := New(tt.level).Apply(context.Background(), sample())
			require.NoError(t, err)
			assert.Equal(t, tt.want, targets(got))
		})
	}
}

func TestRules(t *testing.T) {
	t.Parallel()

	rt := runtime.NewRuntime("")
	f := New(LevelRaw, WithRules(rt,
		runtime.Rule{Name: "no_use", Source: `rel["kind"] != "USE"`},
		runtime.Rule{Name: "no_jdk", Source: `!rel["target"].has_prefix("java.")`},
	))

	got, err := f.Apply(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.B.run()", "int", "com.example.A.m().x"}, targets(got))
}

func TestRuleErrorsKeepRelation(t *testing.T) {
	t.Parallel()

	rt := runtime.NewRuntime("")
	f := New(LevelPure, WithRules(rt, runtime.Rule{Name: "broken", Source: `attr(1)`}))

	got, err := f.Apply(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 rule error(s)")
	assert.Len(t, got, 2)
}

func TestApplyHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(LevelRaw).Apply(ctx, sample())
	require.ErrorIs(t, err, context.Canceled)
}

func TestExternal(t *testing.T) {
	t.Parallel()

	assert.True(t, External(rel(relation.Call, "x", "METHOD", relation.Attrs{relation.External: true})))
	assert.True(t, External(rel(relation.Use, "x", "UNKNOWN", relation.Attrs{relation.Unresolved: true})))
	assert.True(t, External(rel(relation.Return, "int", "PRIMITIVE", nil)))
	assert.False(t, External(rel(relation.Call, "com.example.B.run()", "METHOD", nil)))
}
