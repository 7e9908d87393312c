package qname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "com.example.Outer.Inner", Type("com.example", "Outer", "Inner"))
	assert.Equal(t, "Outer", Type("", "Outer"))
	assert.Equal(t, "com.example.Outer.Inner", Nested("com.example.Outer", "Inner"))
}

func TestMethodErasesParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		params []string
		want   string
	}{
		{nil, "a.B.run()"},
		{[]string{"int"}, "a.B.run(int)"},
		{[]string{"List<String>", "Map<K, List<V>>"}, "a.B.run(List,Map)"},
		{[]string{"String", "Object..."}, "a.B.run(String,Object[])"},
		{[]string{"final @NonNull String"}, "a.B.run(String)"},
		{[]string{"int [] []"}, "a.B.run(int[][])"},
		{[]string{"@Size(max = 3) byte[]"}, "a.B.run(byte[])"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Method("a.B", "run", tt.params))
	}
}

func TestOverloadsAreDistinct(t *testing.T) {
	t.Parallel()

	a := Method("a.B", "log", []string{"String"})
	b := Method("a.B", "log", []string{"String", "Object..."})
	c := Method("a.B", "log", []string{"Object"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestSyntheticNames(t *testing.T) {
	t.Parallel()

	m := "a.B.m()"
	assert.Equal(t, "a.B.m().lambda$1", Lambda(m, 1))
	assert.Equal(t, "a.B.m().lambda$1.lambda$2", Lambda(Lambda(m, 1), 2))
	assert.Equal(t, "a.B.m().$3", Anonymous(m, 3))
	assert.Equal(t, "a.B.m().block$2", Block(m, 2))
	assert.Equal(t, "a.B.m().block$2.x$1", Redeclared(Block(m, 2), "x", 1))
	assert.Equal(t, "a.B.static$1", Initializer("a.B", true, 1))
	assert.Equal(t, "a.B.init$2", Initializer("a.B", false, 2))
}

func TestSiblingBlocksShareRedeclarationCount(t *testing.T) {
	t.Parallel()

	first := Redeclared(Block("a.B.m()", 1), "i", 1)
	second := Redeclared(Block("a.B.m()", 2), "i", 1)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "i$1", Simple(first))
	assert.Equal(t, "i$1", Simple(second))
}

func TestMissingOwnerPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrNoOwner)
	}()
	Member("", "x")
}

func TestParentSimpleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qn, parent, simple, name string
	}{
		{"a.B", "a", "B", "B"},
		{"B", "", "B", "B"},
		{"a.B.m(java.util.List)", "a.B", "m(java.util.List)", "m"},
		{"a.B.m(int).x", "a.B.m(int)", "x", "x"},
		{"a.B.m(Map.Entry).lambda$1", "a.B.m(Map.Entry)", "lambda$1", "lambda$1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.parent, Parent(tt.qn), tt.qn)
		assert.Equal(t, tt.simple, Simple(tt.qn), tt.qn)
		assert.Equal(t, tt.name, Name(tt.qn), tt.qn)
	}
}
