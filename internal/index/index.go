// Package index is the project-wide type index shared by all compilation
// units of one analysis run.
//
// Lifecycle: New creates an empty index; each unit's declaration pass calls
// Add once with the types it declares; Freeze is called after every
// declaration pass has finished; from then on the index is read-only and
// safe for concurrent readers without locking.
package index

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jward/understory/internal/scope"
)

// ErrFrozen is returned by Add after Freeze.
var ErrFrozen = errors.New("index: frozen")

// Imports is the import context of one compilation unit.
type Imports struct {
	Package string
	// Single maps a simple type name to the qualified name it imports.
	Single map[string]string
	// OnDemand lists packages or types imported with `.*`, in source order.
	OnDemand []string
	// StaticSingle maps a member name to the type it is statically imported
	// from.
	StaticSingle map[string]string
	// StaticOnDemand lists types whose static members are all imported.
	StaticOnDemand []string
}

// NewImports returns an empty import context for pkg.
func NewImports(pkg string) *Imports {
	return &Imports{
		Package:      pkg,
		Single:       make(map[string]string),
		StaticSingle: make(map[string]string),
	}
}

// Member is a field, enum constant, method or constructor of an indexed type.
type Member struct {
	QualifiedName string
	Name          string
	Kind          scope.SymbolKind
	Owner         string
	Type          string
	Modifiers     []string
	Params        []string
	Varargs       bool
	Implicit      bool
}

// Static reports whether the member is static.
func (m *Member) Static() bool { return slices.Contains(m.Modifiers, "static") }

// Visibility returns public, protected, private or package.
func (m *Member) Visibility() string {
	for _, v := range []string{"public", "protected", "private"} {
		if slices.Contains(m.Modifiers, v) {
			return v
		}
	}
	return "package"
}

// TypeInfo is the exported shape of a declared type.
type TypeInfo struct {
	QualifiedName string
	Name          string
	Package       string
	Kind          scope.SymbolKind
	Modifiers     []string
	// Outer is the enclosing type for member types, empty otherwise.
	Outer string
	// Local marks types declared inside a method body or anonymous class;
	// they are not reachable by simple name from other units.
	Local bool
	// Supertypes lists the superclass first (when HasSuperclass), then
	// interfaces, as written in source.
	Supertypes    []string
	HasSuperclass bool
	TypeParams    []string
	Fields        map[string]*Member
	Methods       map[string][]*Member
	MemberTypes   map[string]string
	Imports       *Imports
	Unit          string
}

// NewTypeInfo returns a TypeInfo with its member tables allocated.
func NewTypeInfo(qn, name, pkg string, kind scope.SymbolKind) *TypeInfo {
	return &TypeInfo{
		QualifiedName: qn,
		Name:          name,
		Package:       pkg,
		Kind:          kind,
		Fields:        make(map[string]*Member),
		Methods:       make(map[string][]*Member),
		MemberTypes:   make(map[string]string),
	}
}

// Static reports whether the type is declared static (explicitly or
// implicitly).
func (t *TypeInfo) Static() bool { return slices.Contains(t.Modifiers, "static") }

// TopLevel returns the outermost enclosing type's qualified name.
func (t *TypeInfo) TopLevel(ix *Index) string {
	cur := t
	for cur.Outer != "" {
		next, ok := ix.Type(cur.Outer)
		if !ok {
			return cur.Outer
		}
		cur = next
	}
	return cur.QualifiedName
}

// DuplicateTypeError reports a type declared by two units.
type DuplicateTypeError struct {
	QualifiedName string
	First, Second string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("index: type %s declared in %s and %s", e.QualifiedName, e.First, e.Second)
}

// Index is the project-wide type index.
type Index struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	types    map[string]*TypeInfo
	packages map[string]map[string]string
	external map[string]bool
	// externalBySimple maps simple names of known external types to their
	// qualified names; ambiguous simple names map to "".
	externalBySimple map[string]string
}

// Option configures an Index.
type Option func(*Index)

// WithExternalTypes registers qualified names of types that exist outside
// the analyzed sources, used to disambiguate on-demand imports.
func WithExternalTypes(qns ...string) Option {
	return func(ix *Index) {
		for _, qn := range qns {
			if qn == "" {
				continue
			}
			ix.external[qn] = true
			simple := qn[strings.LastIndexByte(qn, '.')+1:]
			if prev, ok := ix.externalBySimple[simple]; ok && prev != qn {
				ix.externalBySimple[simple] = ""
				continue
			}
			ix.externalBySimple[simple] = qn
		}
	}
}

// New returns an empty, writable index.
func New(opts ...Option) *Index {
	ix := &Index{
		types:            make(map[string]*TypeInfo),
		packages:         make(map[string]map[string]string),
		external:         make(map[string]bool),
		externalBySimple: make(map[string]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add merges the types declared by one unit. Types already declared by
// another unit keep their first declaration; each collision is reported in
// the returned error, the remaining types are still added.
func (ix *Index) Add(unit string, types []*TypeInfo) error {
	if ix.frozen.Load() {
		return ErrFrozen
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.frozen.Load() {
		return ErrFrozen
	}

	var errs []error
	for _, t := range types {
		if prev, ok := ix.types[t.QualifiedName]; ok {
			errs = append(errs, &DuplicateTypeError{QualifiedName: t.QualifiedName, First: prev.Unit, Second: unit})
			continue
		}
		t.Unit = unit
		ix.types[t.QualifiedName] = t
		if t.Outer == "" && !t.Local {
			names := ix.packages[t.Package]
			if names == nil {
				names = make(map[string]string)
				ix.packages[t.Package] = names
			}
			names[t.Name] = t.QualifiedName
		}
	}
	return errors.Join(errs...)
}

// Freeze makes the index read-only. It is idempotent.
func (ix *Index) Freeze() {
	ix.mu.Lock()
	ix.frozen.Store(true)
	ix.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (ix *Index) Frozen() bool { return ix.frozen.Load() }

func (ix *Index) rlock() func() {
	if ix.frozen.Load() {
		return func() {}
	}
	ix.mu.RLock()
	return ix.mu.RUnlock
}

// Type returns the indexed type with the given qualified name.
func (ix *Index) Type(qn string) (*TypeInfo, bool) {
	defer ix.rlock()()
	t, ok := ix.types[qn]
	return t, ok
}

// TypeInPackage returns the top-level type name declared in pkg.
func (ix *Index) TypeInPackage(pkg, name string) (string, bool) {
	defer ix.rlock()()
	qn, ok := ix.packages[pkg][name]
	return qn, ok
}

// HasPackage reports whether any analyzed unit declares pkg.
func (ix *Index) HasPackage(pkg string) bool {
	defer ix.rlock()()
	_, ok := ix.packages[pkg]
	return ok
}

// IsExternalType reports whether qn was registered as a known external type.
func (ix *Index) IsExternalType(qn string) bool {
	defer ix.rlock()()
	return ix.external[qn]
}

// ExternalBySimple returns the single known external type with the given
// simple name.
func (ix *Index) ExternalBySimple(simple string) (string, bool) {
	defer ix.rlock()()
	qn, ok := ix.externalBySimple[simple]
	return qn, ok && qn != ""
}

// Len returns the number of indexed types.
func (ix *Index) Len() int {
	defer ix.rlock()()
	return len(ix.types)
}

// TypeNames returns every indexed type name, sorted.
func (ix *Index) TypeNames() []string {
	defer ix.rlock()()
	names := make([]string, 0, len(ix.types))
	for qn := range ix.types {
		names = append(names, qn)
	}
	sort.Strings(names)
	return names
}
