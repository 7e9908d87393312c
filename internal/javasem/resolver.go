package javasem

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// frame is the resolver's position: the innermost scope and the symbol that
// relations emitted there are sourced from.
type frame struct {
	cur scope.ScopeID
	src relation.Endpoint
}

type captureKey struct {
	boundary scope.ScopeID
	target   string
}

// resolver is the expression pass over one declared unit.
type resolver struct {
	d   *Declared
	a   *scope.Arena
	ix  *index.Index
	src []byte

	rels  []relation.Relation
	diags []Diagnostic

	superCache map[string][]TypeRef
	varTypes   map[scope.SymbolID]TypeRef
	captured   map[captureKey]bool
	reassigned map[scope.SymbolID]bool
	ambiguous  map[string]bool
}

func newResolver(d *Declared, ix *index.Index) *resolver {
	return &resolver{
		d:          d,
		a:          d.arena,
		ix:         ix,
		src:        d.unit.Source,
		superCache: make(map[string][]TypeRef),
		varTypes:   make(map[scope.SymbolID]TypeRef),
		captured:   make(map[captureKey]bool),
		reassigned: make(map[scope.SymbolID]bool),
		ambiguous:  make(map[string]bool),
	}
}

func (r *resolver) run(root *sitter.Node) {
	f := frame{cur: r.a.Root()}
	for _, c := range namedChildren(root) {
		r.visit(c, f)
	}
}

// emit appends a relation. Relations without a source (code outside any
// executable scope) or without a target are dropped.
func (r *resolver) emit(kind relation.Kind, src, tgt relation.Endpoint, attrs relation.Attrs, n *sitter.Node) {
	if src.QualifiedName == "" || tgt.QualifiedName == "" {
		return
	}
	r.rels = append(r.rels, relation.Relation{
		Source: src,
		Target: tgt,
		Kind:   kind,
		Attrs:  attrs,
		Span:   relSpan(n),
	})
}

func (r *resolver) endpoint(id scope.SymbolID) relation.Endpoint {
	if id == 0 {
		return relation.Endpoint{}
	}
	sym := r.a.Symbol(id)
	return relation.Endpoint{QualifiedName: sym.QualifiedName, Kind: string(sym.Kind)}
}

func (r *resolver) symbolOf(n *sitter.Node) scope.SymbolID {
	if n == nil {
		return 0
	}
	return r.d.symbolAt[keyOf(n)]
}

// enter moves the frame into the scope n opens, if any. Executable scopes
// become the relation source.
func (r *resolver) enter(n *sitter.Node, f frame) frame {
	id, ok := r.d.scopeAt[keyOf(n)]
	if !ok {
		return f
	}
	f.cur = id
	if s := r.a.Scope(id); s.Kind.Executable() && s.Owner != 0 {
		f.src = r.endpoint(s.Owner)
	}
	return f
}

func (r *resolver) skipped(n *sitter.Node) {
	what := n.Type()
	if n.IsMissing() {
		what = "missing " + what
	}
	r.diags = append(r.diags, diagAt(n, DiagSkippedNode, "%s: %s", what, compact(text(n, r.src))))
}

// visit classifies one node and recurses. Each node kind is handled by
// exactly one case.
func (r *resolver) visit(n *sitter.Node, f frame) {
	if n == nil {
		return
	}
	if isBroken(n) {
		r.skipped(n)
		return
	}
	f = r.enter(n, f)

	if isTypeDecl(n.Type()) {
		r.typeDecl(n, f)
		return
	}
	switch n.Type() {
	case "package_declaration", "import_declaration", "module_declaration",
		"line_comment", "block_comment", "modifiers", "marker_annotation", "annotation",
		"type_identifier", "scoped_type_identifier", "generic_type", "array_type",
		"integral_type", "floating_point_type", "boolean_type", "void_type",
		"type_arguments", "type_parameters", "dimensions", "class_literal",
		"this", "super", "break_statement", "continue_statement":

	case "method_declaration", "constructor_declaration", "compact_constructor_declaration",
		"annotation_type_element_declaration":
		r.methodDecl(n, f)
	case "field_declaration", "constant_declaration":
		r.fieldDecl(n, f)
	case "enum_constant":
		r.enumConstant(n, f)
	case "local_variable_declaration":
		r.localDecl(n, f)
	case "enhanced_for_statement":
		r.enhancedFor(n, f)
	case "resource":
		r.resource(n, f)
	case "catch_clause":
		r.visit(n.ChildByFieldName("body"), f)
	case "labeled_statement":
		for _, c := range namedChildren(n) {
			if c.Type() != "identifier" {
				r.visit(c, f)
			}
		}
	case "lambda_expression":
		r.lambda(n, f)

	case "method_invocation":
		r.call(n, f)
	case "method_reference":
		r.methodRef(n, f)
	case "explicit_constructor_invocation":
		r.ctorCall(n, f)
	case "object_creation_expression":
		r.create(n, f)
	case "array_creation_expression":
		r.createArray(n, f)
	case "assignment_expression":
		r.assign(n, f)
	case "update_expression":
		r.update(n, f)
	case "cast_expression":
		r.cast(n, f)
	case "instanceof_expression":
		r.instanceOf(n, f)
	case "switch_label":
		r.switchLabel(n, f)
	case "throw_statement":
		r.throwStmt(n, f)
	case "identifier":
		r.nameUse(n, f, useRead, -1)
	case "field_access":
		r.fieldUse(n, f, useRead, -1)

	default:
		for _, c := range namedChildren(n) {
			r.visit(c, f)
		}
	}
}
