// Package scope holds the per-unit scope tree and symbol tables.
//
// All scopes and symbols of one compilation unit live in an Arena and refer
// to each other through ScopeID and SymbolID handles. The zero handle means
// "none". An Arena is written by a single declaration pass and is read-only
// afterwards.
package scope

import (
	"fmt"
	"slices"
)

// ScopeID is a handle to a Scope in an Arena. Zero means none.
type ScopeID uint32

// SymbolID is a handle to a Symbol in an Arena. Zero means none.
type SymbolID uint32

// Kind classifies a scope by the construct that introduced it.
type Kind uint8

const (
	KindUnit Kind = iota + 1
	KindType
	KindMethod
	KindLambda
	KindAnonymous
	KindInitializer
	KindBlock
	KindClause
)

var kindNames = map[Kind]string{
	KindUnit:        "unit",
	KindType:        "type",
	KindMethod:      "method",
	KindLambda:      "lambda",
	KindAnonymous:   "anonymous",
	KindInitializer: "initializer",
	KindBlock:       "block",
	KindClause:      "clause",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Boundary reports whether crossing this scope outward leaves a closure
// (a lambda or anonymous class body).
func (k Kind) Boundary() bool {
	return k == KindLambda || k == KindAnonymous
}

// Executable reports whether relations emitted inside the scope are sourced
// from the scope's owner symbol.
func (k Kind) Executable() bool {
	switch k {
	case KindMethod, KindLambda, KindInitializer:
		return true
	}
	return false
}

// TypeLike reports whether the scope holds members of a class body.
func (k Kind) TypeLike() bool {
	return k == KindType || k == KindAnonymous
}

// Span is a source range. Lines and columns are 0-based.
type Span struct {
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	StartByte uint32 `json:"-"`
	EndByte   uint32 `json:"-"`
}

// Contains reports whether offset lies within the span.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.StartByte && offset < s.EndByte
}

// Scope is one node of the scope tree.
type Scope struct {
	ID       ScopeID
	Kind     Kind
	Parent   ScopeID
	Children []ScopeID
	// Owner is the symbol that introduced the scope (type, method, lambda,
	// anonymous class, initializer). Blocks and clauses have no owner.
	Owner SymbolID
	// Name is the qualified prefix used for symbols declared directly in
	// this scope.
	Name string
	// Static marks scopes that cut off the enclosing instance: static
	// methods, static initializers, static nested types. Instance members
	// of types outside such a scope are not accessible from inside it.
	Static bool
	Span   Span

	names    map[string]SymbolID
	types    map[string]SymbolID
	methods  map[string][]SymbolID
	order    []SymbolID
	counters map[string]int
}

// Next increments and returns the counter for key. Counters start at 1.
func (s *Scope) Next(key string) int {
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	s.counters[key]++
	return s.counters[key]
}

// Count returns the current value of the counter for key.
func (s *Scope) Count(key string) int {
	return s.counters[key]
}

// Symbols returns the symbols declared directly in the scope in declaration
// order.
func (s *Scope) Symbols() []SymbolID {
	return slices.Clone(s.order)
}

// Arena owns every scope and symbol of one compilation unit.
type Arena struct {
	scopes  []Scope
	symbols []Symbol
	byQN    map[string]SymbolID
}

// NewArena returns an arena whose root is a unit scope named pkg.
func NewArena(pkg string, span Span) *Arena {
	a := &Arena{
		scopes:  make([]Scope, 1, 64),
		symbols: make([]Symbol, 1, 256),
		byQN:    make(map[string]SymbolID),
	}
	a.scopes = append(a.scopes, Scope{ID: 1, Kind: KindUnit, Name: pkg, Span: span})
	return a
}

// Root returns the unit scope.
func (a *Arena) Root() ScopeID { return 1 }

// Scope returns the scope for id. It panics on the zero handle.
func (a *Arena) Scope(id ScopeID) *Scope {
	if id == 0 || int(id) >= len(a.scopes) {
		panic(fmt.Sprintf("scope: invalid scope handle %d", id))
	}
	return &a.scopes[id]
}

// Symbol returns the symbol for id. It panics on the zero handle.
func (a *Arena) Symbol(id SymbolID) *Symbol {
	if id == 0 || int(id) >= len(a.symbols) {
		panic(fmt.Sprintf("scope: invalid symbol handle %d", id))
	}
	return &a.symbols[id]
}

// NumScopes returns the number of scopes including the root.
func (a *Arena) NumScopes() int { return len(a.scopes) - 1 }

// NumSymbols returns the number of declared symbols.
func (a *Arena) NumSymbols() int { return len(a.symbols) - 1 }

// AllSymbols returns every symbol handle in creation order.
func (a *Arena) AllSymbols() []SymbolID {
	ids := make([]SymbolID, 0, len(a.symbols)-1)
	for i := 1; i < len(a.symbols); i++ {
		ids = append(ids, SymbolID(i))
	}
	return ids
}

// ByQualifiedName looks up a symbol of this unit by qualified name.
func (a *Arena) ByQualifiedName(qn string) (SymbolID, bool) {
	id, ok := a.byQN[qn]
	return id, ok
}

// NewScope creates a child scope of parent.
func (a *Arena) NewScope(kind Kind, parent ScopeID, owner SymbolID, name string, span Span) ScopeID {
	a.Scope(parent)
	id := ScopeID(len(a.scopes))
	a.scopes = append(a.scopes, Scope{
		ID:     id,
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Name:   name,
		Span:   span,
	})
	a.scopes[parent].Children = append(a.scopes[parent].Children, id)
	if owner != 0 {
		a.symbols[owner].Body = id
	}
	return id
}

// DuplicateError reports a second same-named declaration at one level.
type DuplicateError struct {
	Name     string
	Existing SymbolID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("scope: duplicate declaration of %q", e.Name)
}

// Declare registers sym in scope. Methods and constructors join an overload
// set by name; any other second declaration of a name at the same level is
// rejected with a *DuplicateError and the first declaration is kept. A
// qualified name collision is also rejected. Unnamed kinds are recorded in
// declaration order only.
func (a *Arena) Declare(scope ScopeID, sym Symbol) (SymbolID, error) {
	s := a.Scope(scope)
	if existing, ok := a.byQN[sym.QualifiedName]; ok {
		return existing, &DuplicateError{Name: sym.QualifiedName, Existing: existing}
	}
	switch {
	case sym.Kind.Unnamed():
	case sym.Kind.IsType():
		if existing, ok := s.types[sym.Name]; ok {
			return existing, &DuplicateError{Name: sym.Name, Existing: existing}
		}
	case !sym.Kind.Callable():
		if existing, ok := s.names[sym.Name]; ok {
			return existing, &DuplicateError{Name: sym.Name, Existing: existing}
		}
	}

	id := SymbolID(len(a.symbols))
	sym.ID = id
	sym.Scope = scope
	a.symbols = append(a.symbols, sym)
	a.byQN[sym.QualifiedName] = id

	switch {
	case sym.Kind.Unnamed():
	case sym.Kind.IsType():
		if s.types == nil {
			s.types = make(map[string]SymbolID)
		}
		s.types[sym.Name] = id
	case sym.Kind.Callable():
		if s.methods == nil {
			s.methods = make(map[string][]SymbolID)
		}
		s.methods[sym.Name] = append(s.methods[sym.Name], id)
	default:
		if s.names == nil {
			s.names = make(map[string]SymbolID)
		}
		s.names[sym.Name] = id
	}
	s.order = append(s.order, id)
	return id, nil
}

// Local looks up a non-callable name declared directly in scope. Locals,
// parameters and pattern bindings are visible only at or after their
// declaration offset; other kinds are visible anywhere in the scope.
func (a *Arena) Local(scope ScopeID, name string, at uint32) (SymbolID, bool) {
	id, ok := a.Scope(scope).names[name]
	if !ok {
		return 0, false
	}
	sym := a.Symbol(id)
	if sym.Kind.Ordered() && at < sym.Offset {
		return 0, false
	}
	return id, true
}

// LocalType looks up a type declared directly in scope.
func (a *Arena) LocalType(scope ScopeID, name string) (SymbolID, bool) {
	id, ok := a.Scope(scope).types[name]
	return id, ok
}

// Methods returns the overload set for name declared directly in scope.
func (a *Arena) Methods(scope ScopeID, name string) []SymbolID {
	return a.Scope(scope).methods[name]
}

// Chain returns scope and its ancestors, innermost first.
func (a *Arena) Chain(scope ScopeID) []ScopeID {
	var out []ScopeID
	for id := scope; id != 0; id = a.Scope(id).Parent {
		out = append(out, id)
	}
	return out
}

// Enclosing returns the innermost scope on the chain (including scope
// itself) for which match reports true, or zero.
func (a *Arena) Enclosing(scope ScopeID, match func(*Scope) bool) ScopeID {
	for id := scope; id != 0; id = a.Scope(id).Parent {
		if match(a.Scope(id)) {
			return id
		}
	}
	return 0
}

// EnclosingType returns the innermost class body (named or anonymous)
// enclosing scope.
func (a *Arena) EnclosingType(scope ScopeID) ScopeID {
	return a.Enclosing(scope, func(s *Scope) bool { return s.Kind.TypeLike() })
}

// Within reports whether inner is scope or one of its descendants.
func (a *Arena) Within(inner, scope ScopeID) bool {
	for id := inner; id != 0; id = a.Scope(id).Parent {
		if id == scope {
			return true
		}
	}
	return false
}
