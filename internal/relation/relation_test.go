package relation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNamesRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, k := range Kinds() {
		name := k.String()
		assert.NotContains(t, name, "Kind(", "kind %d has no wire name", k)
		assert.False(t, seen[name], "duplicate wire name %s", name)
		seen[name] = true

		parsed, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Len(t, seen, 13)
}

func TestParseKindRejectsUnknown(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("type_arg")
	require.NoError(t, err)
	assert.Equal(t, TypeArg, k)

	_, err = ParseKind("CONTAIN")
	assert.Error(t, err)

	_, err = Kind(0).MarshalText()
	assert.Error(t, err)
}

func TestRecordJSONShape(t *testing.T) {
	t.Parallel()

	r := Relation{
		Source: Endpoint{QualifiedName: "a.B.m()", Kind: "METHOD"},
		Target: Endpoint{QualifiedName: "a.B.f", Kind: "FIELD"},
		Kind:   Assign,
		Attrs:  Attrs{AssignOperator: "=", AssignIsCompound: false},
	}
	data, err := json.Marshal(r.Record())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "a.B.m()", got["sourceQualifiedName"])
	assert.Equal(t, "METHOD", got["sourceKind"])
	assert.Equal(t, "a.B.f", got["targetQualifiedName"])
	assert.Equal(t, "FIELD", got["targetKind"])
	assert.Equal(t, "ASSIGN", got["relationKind"])
	attrs := got["attributes"].(map[string]any)
	assert.Equal(t, "=", attrs[AssignOperator])

	empty := Relation{Kind: Use}.Record()
	assert.NotNil(t, empty.Attributes)
}

func TestAttrsAccessors(t *testing.T) {
	t.Parallel()

	a := Attrs{"b": true, "s": "x", "i": 3, "f": float64(2), "n": 7}
	assert.True(t, a.Bool("b"))
	assert.False(t, a.Bool("s"))
	assert.Equal(t, "x", a.String("s"))
	assert.Equal(t, "7", a.String("n"))
	assert.Equal(t, "", a.String("missing"))

	i, ok := a.Int("i")
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	f, ok := a.Int("f")
	assert.True(t, ok)
	assert.Equal(t, 2, f)
	_, ok = a.Int("s")
	assert.False(t, ok)

	assert.Equal(t, []string{"b", "f", "i", "n", "s"}, a.Keys())
}

func TestFilterHelpers(t *testing.T) {
	t.Parallel()

	rels := []Relation{{Kind: Call}, {Kind: Use}, {Kind: Call}}
	assert.Len(t, OfKind(rels, Call), 2)
	assert.Len(t, OfKind(rels, Capture), 0)
	assert.Equal(t, "a -CALL-> b", Relation{
		Source: Endpoint{QualifiedName: "a"},
		Target: Endpoint{QualifiedName: "b"},
		Kind:   Call,
	}.String())
}
