package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(start, end uint32) Span {
	return Span{StartByte: start, EndByte: end}
}

func TestArenaDeclareAndLookup(t *testing.T) {
	t.Parallel()

	a := NewArena("com.example", span(0, 100))
	typ, err := a.Declare(a.Root(), Symbol{QualifiedName: "com.example.A", Name: "A", Kind: SymClass})
	require.NoError(t, err)
	body := a.NewScope(KindType, a.Root(), typ, "com.example.A", span(0, 100))
	assert.Equal(t, body, a.Symbol(typ).Body)

	field, err := a.Declare(body, Symbol{QualifiedName: "com.example.A.f", Name: "f", Kind: SymField, Offset: 50})
	require.NoError(t, err)

	// Fields are visible before their declaration point.
	got, ok := a.Local(body, "f", 10)
	require.True(t, ok)
	assert.Equal(t, field, got)

	id, ok := a.ByQualifiedName("com.example.A.f")
	require.True(t, ok)
	assert.Equal(t, field, id)

	tid, ok := a.LocalType(a.Root(), "A")
	require.True(t, ok)
	assert.Equal(t, typ, tid)
}

func TestLocalsAreOrdered(t *testing.T) {
	t.Parallel()

	a := NewArena("", span(0, 100))
	m := a.NewScope(KindMethod, a.Root(), 0, "A.m()", span(10, 90))
	_, err := a.Declare(m, Symbol{QualifiedName: "A.m().x", Name: "x", Kind: SymVariable, Offset: 40})
	require.NoError(t, err)

	_, ok := a.Local(m, "x", 39)
	assert.False(t, ok)
	_, ok = a.Local(m, "x", 40)
	assert.True(t, ok)
}

func TestDuplicateDeclarationKeepsFirst(t *testing.T) {
	t.Parallel()

	a := NewArena("", span(0, 100))
	m := a.NewScope(KindMethod, a.Root(), 0, "A.m()", span(0, 100))
	first, err := a.Declare(m, Symbol{QualifiedName: "A.m().x", Name: "x", Kind: SymVariable})
	require.NoError(t, err)

	got, err := a.Declare(m, Symbol{QualifiedName: "A.m().x$2", Name: "x", Kind: SymVariable})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, a.NumSymbols())
}

func TestOverloadSets(t *testing.T) {
	t.Parallel()

	a := NewArena("", span(0, 100))
	body := a.NewScope(KindType, a.Root(), 0, "A", span(0, 100))
	_, err := a.Declare(body, Symbol{QualifiedName: "A.log(String)", Name: "log", Kind: SymMethod})
	require.NoError(t, err)
	_, err = a.Declare(body, Symbol{QualifiedName: "A.log(String,Object[])", Name: "log", Kind: SymMethod})
	require.NoError(t, err)

	assert.Len(t, a.Methods(body, "log"), 2)

	_, err = a.Declare(body, Symbol{QualifiedName: "A.log(String)", Name: "log", Kind: SymMethod})
	assert.Error(t, err)
}

func TestChainAndCounters(t *testing.T) {
	t.Parallel()

	a := NewArena("", span(0, 100))
	typ := a.NewScope(KindType, a.Root(), 0, "A", span(0, 100))
	m := a.NewScope(KindMethod, typ, 0, "A.m()", span(10, 90))
	lam := a.NewScope(KindLambda, m, 0, "A.m().lambda$1", span(20, 80))
	blk := a.NewScope(KindBlock, lam, 0, "A.m().lambda$1.block$1", span(30, 70))

	assert.Equal(t, []ScopeID{blk, lam, m, typ, a.Root()}, a.Chain(blk))
	assert.Equal(t, typ, a.EnclosingType(blk))
	assert.True(t, a.Within(blk, m))
	assert.False(t, a.Within(m, blk))

	s := a.Scope(m)
	assert.Equal(t, 1, s.Next("lambda"))
	assert.Equal(t, 2, s.Next("lambda"))
	assert.Equal(t, 1, s.Next("block"))
	assert.Equal(t, 2, s.Count("lambda"))
	assert.Equal(t, []ScopeID{lam}, s.Children)
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, KindLambda.Boundary())
	assert.True(t, KindAnonymous.Boundary())
	assert.False(t, KindBlock.Boundary())
	assert.True(t, KindMethod.Executable())
	assert.False(t, KindType.Executable())
	assert.True(t, SymRecord.IsType())
	assert.True(t, SymConstructor.Callable())
	assert.True(t, SymParameter.Ordered())
	assert.False(t, SymField.Ordered())

	sym := Symbol{Modifiers: []string{"protected", "static"}}
	assert.True(t, sym.Static())
	assert.Equal(t, "protected", sym.Visibility())
	assert.Equal(t, "package", (&Symbol{}).Visibility())
}

func TestUnnamedSymbolsSkipTables(t *testing.T) {
	t.Parallel()

	a := NewArena("p", Span{})
	first, err := a.Declare(a.Root(), Symbol{QualifiedName: "p.A.f.lambda$1", Name: "lambda$1", Kind: SymLambda})
	require.NoError(t, err)
	second, err := a.Declare(a.Root(), Symbol{QualifiedName: "p.A.g.lambda$1", Name: "lambda$1", Kind: SymLambda})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok := a.Local(a.Root(), "lambda$1", 0)
	assert.False(t, ok)
	assert.Equal(t, []SymbolID{first, second}, a.Scope(a.Root()).Symbols())
}
