// Package javasem is the Java resolution engine. It runs two passes over
// each parsed compilation unit: Declare builds the unit's scope tree and
// exports its type shapes to the project index; Resolve walks executable
// code against the frozen index and emits relations.
//
// The package does no I/O. Callers parse sources (see internal/runtime),
// call Declare for every unit, merge the exports into one index.Index,
// freeze it, and then call Resolve for every unit. Units are independent
// of each other within a pass and may be processed concurrently.
package javasem

import (
	"fmt"
	"runtime/debug"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// Status is the outcome of processing one unit.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Unit is one parsed compilation unit. Tree may be nil when parsing failed.
type Unit struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
}

// SymbolInfo is the externally visible shape of a declared symbol.
type SymbolInfo struct {
	QualifiedName string           `json:"qualified_name"`
	Name          string           `json:"name"`
	Kind          scope.SymbolKind `json:"kind"`
	Type          string           `json:"type,omitempty"`
	Modifiers     []string         `json:"modifiers,omitempty"`
	Span          scope.Span       `json:"span"`
	Implicit      bool             `json:"implicit,omitempty"`
}

// Result is the output of the expression pass for one unit.
type Result struct {
	Path        string
	Package     string
	Status      Status
	Relations   []relation.Relation
	Symbols     map[string]SymbolInfo
	Diagnostics []Diagnostic
}

// Declared is the output of the declaration pass for one unit. It is
// read-only once Declare returns, except that Resolve reads it.
type Declared struct {
	unit    Unit
	arena   *scope.Arena
	imports *index.Imports
	exports []*index.TypeInfo
	diags   []Diagnostic
	failed  bool

	// scopeAt maps a syntax node to the scope it opens, including pattern
	// clause scopes keyed by the first statement they cover.
	scopeAt map[nodeKey]scope.ScopeID
	// symbolAt maps a declaring node (declarator, parameter, method, type,
	// lambda, anonymous class body, initializer) to its symbol.
	symbolAt map[nodeKey]scope.SymbolID
	// varInit holds the initializer of locals declared with `var`.
	varInit map[scope.SymbolID]*sitter.Node
}

// Path returns the unit's path.
func (d *Declared) Path() string { return d.unit.Path }

// Failed reports whether the declaration pass could not complete.
func (d *Declared) Failed() bool { return d.failed }

// Exports returns the type shapes to merge into the project index. A failed
// unit exports nothing.
func (d *Declared) Exports() []*index.TypeInfo {
	if d.failed {
		return nil
	}
	return d.exports
}

// Arena returns the unit's scope tree.
func (d *Declared) Arena() *scope.Arena { return d.arena }

// Imports returns the unit's import context.
func (d *Declared) Imports() *index.Imports { return d.imports }

// Diagnostics returns the diagnostics recorded by the declaration pass.
func (d *Declared) Diagnostics() []Diagnostic { return d.diags }

// Symbols returns every symbol declared by the unit keyed by qualified name.
func (d *Declared) Symbols() map[string]SymbolInfo {
	out := make(map[string]SymbolInfo)
	if d.failed || d.arena == nil {
		return out
	}
	for _, id := range d.arena.AllSymbols() {
		sym := d.arena.Symbol(id)
		out[sym.QualifiedName] = SymbolInfo{
			QualifiedName: sym.QualifiedName,
			Name:          sym.Name,
			Kind:          sym.Kind,
			Type:          sym.Type,
			Modifiers:     sym.Modifiers,
			Span:          sym.Span,
			Implicit:      sym.Implicit,
		}
	}
	return out
}

// Declare runs the declaration pass over u. It never panics; an internal
// failure marks the result as failed.
func Declare(u Unit) (d *Declared) {
	d = &Declared{
		unit:     u,
		scopeAt:  make(map[nodeKey]scope.ScopeID),
		symbolAt: make(map[nodeKey]scope.SymbolID),
		varInit:  make(map[scope.SymbolID]*sitter.Node),
	}
	if u.Tree == nil {
		d.failed = true
		d.diags = append(d.diags, Diagnostic{Kind: DiagParseError, Message: "no syntax tree"})
		return d
	}
	defer func() {
		if r := recover(); r != nil {
			d.failed = true
			d.exports = nil
			d.diags = append(d.diags, internalError("declare", r))
		}
	}()
	root := u.Tree.RootNode()
	if root.HasError() {
		d.diags = append(d.diags, Diagnostic{Kind: DiagParseError, Message: "source has syntax errors"})
	}
	newDeclarer(d).run(root)
	return d
}

// Resolve runs the expression pass over a declared unit against a frozen
// index.
func Resolve(d *Declared, ix *index.Index) (res *Result) {
	res = &Result{Path: d.unit.Path, Status: StatusOK}
	if d.imports != nil {
		res.Package = d.imports.Package
	}
	if d.failed {
		res.Status = StatusFailed
		res.Diagnostics = append(res.Diagnostics, d.diags...)
		return res
	}
	if !ix.Frozen() {
		res.Status = StatusFailed
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagInternal, Message: "index is not frozen"})
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Relations = nil
			res.Symbols = nil
			res.Diagnostics = append(res.Diagnostics, internalError("resolve", r))
		}
	}()

	r := newResolver(d, ix)
	r.run(d.unit.Tree.RootNode())
	res.Relations = r.rels
	res.Symbols = d.Symbols()
	res.Diagnostics = append(append(res.Diagnostics, d.diags...), r.diags...)
	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		a, b := res.Diagnostics[i], res.Diagnostics[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	for _, diag := range res.Diagnostics {
		if diag.Kind.Partial() {
			res.Status = StatusPartial
			break
		}
	}
	return res
}

// Analyze declares and resolves a set of units sequentially against a fresh
// index. Engines that need parallelism drive Declare and Resolve directly.
func Analyze(units []Unit, opts ...index.Option) ([]*Result, *index.Index) {
	ix := index.New(opts...)
	declared := make([]*Declared, len(units))
	for i, u := range units {
		declared[i] = Declare(u)
		_ = AddExports(ix, declared[i])
	}
	ix.Freeze()
	results := make([]*Result, len(units))
	for i, d := range declared {
		results[i] = Resolve(d, ix)
	}
	return results, ix
}

// AddExports merges a unit's exports into ix and records duplicate types as
// diagnostics on the unit. It returns the error from index.Add.
func AddExports(ix *index.Index, d *Declared) error {
	err := ix.Add(d.unit.Path, d.Exports())
	if err != nil {
		d.diags = append(d.diags, duplicateTypeDiags(err)...)
	}
	return err
}

func internalError(pass string, r any) Diagnostic {
	return Diagnostic{
		Kind:    DiagInternal,
		Message: fmt.Sprintf("%s: %v\n%s", pass, r, debug.Stack()),
	}
}
