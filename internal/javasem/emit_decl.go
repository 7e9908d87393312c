package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// Annotation targets.
const (
	targetType     = "TYPE"
	targetField    = "FIELD"
	targetMethod   = "METHOD"
	targetParam    = "PARAMETER"
	targetLocalVar = "LOCAL_VARIABLE"
)

func (r *resolver) typeDecl(n *sitter.Node, f frame) {
	id := r.symbolOf(n)
	if id == 0 {
		return
	}
	sym := r.a.Symbol(id)
	ts := sym.Body
	src := r.endpoint(id)
	f = frame{cur: ts, src: src}

	r.annotations(src, n, ts, targetType)
	r.supertypeEdges(n, sym, ts)

	if sym.Kind == scope.SymRecord {
		for _, p := range formalParams(n) {
			fid := r.symbolOf(p)
			if fid == 0 {
				continue
			}
			fsrc := r.endpoint(fid)
			r.annotations(fsrc, p, ts, targetField)
			r.emitTypeArgs(fsrc, typeNodeOf(p), ts, "", 1)
		}
	}

	body := n.ChildByFieldName("body")
	for _, c := range namedChildren(body) {
		if c.Type() == "enum_body_declarations" {
			for _, m := range namedChildren(c) {
				r.visit(m, f)
			}
			continue
		}
		r.visit(c, f)
	}
}

// supertypeEdges emits EXTEND for a class's superclass and an interface's
// superinterfaces, and IMPLEMENT for implemented interfaces.
func (r *resolver) supertypeEdges(n *sitter.Node, sym *scope.Symbol, ts scope.ScopeID) {
	src := r.endpoint(sym.ID)
	outer := r.a.Scope(ts).Parent
	super, ifaces, extends := superTypeNodes(n)

	if super != nil {
		t := r.typeOfNode(super, outer)
		attrs := relation.Attrs{
			relation.AstKind:     super.Type(),
			relation.RawText:     compact(text(super, r.src)),
			relation.ExtendIndex: 0,
		}
		if typeArgsNode(super) != nil {
			attrs[relation.ExtendHasTypeArgs] = true
		}
		t.flags(attrs)
		r.emit(relation.Extend, src, t.Endpoint(), attrs, super)
		r.emitTypeArgs(src, super, ts, t.QN, 1)
	}

	for i, in := range ifaces {
		t := r.typeOfNode(in, outer)
		ep := t.Endpoint()
		if t.External {
			ep.Kind = string(scope.SymInterface)
		}
		attrs := relation.Attrs{
			relation.AstKind: in.Type(),
			relation.RawText: compact(text(in, r.src)),
		}
		hasArgs := typeArgsNode(in) != nil
		kind := relation.Implement
		if extends {
			kind = relation.Extend
			attrs[relation.ExtendIndex] = i
			if hasArgs {
				attrs[relation.ExtendHasTypeArgs] = true
			}
		} else {
			attrs[relation.ImplementIndex] = i
			if hasArgs {
				attrs[relation.ImplementHasTypeArgs] = true
			}
		}
		t.flags(attrs)
		r.emit(kind, src, ep, attrs, in)
		r.emitTypeArgs(src, in, ts, t.QN, 1)
	}
}

// anonymousBody emits the IMPLEMENT edge of an anonymous class and walks its
// members. super is the instantiated type node, or nil for an enum constant
// body whose supertype is the enum.
func (r *resolver) anonymousBody(body, super *sitter.Node, f frame) {
	id := r.symbolOf(body)
	if id == 0 {
		return
	}
	var t TypeRef
	if super != nil {
		t = r.typeOfNode(super, f.cur)
	} else {
		t = r.typeRef(r.enclosingType(f.cur))
	}
	attrs := relation.Attrs{
		relation.AstKind:            "class_body",
		relation.RawText:            compact(text(super, r.src)),
		relation.ImplementIndex:     0,
		relation.ImplementAnonymous: true,
	}
	if super != nil && typeArgsNode(super) != nil {
		attrs[relation.ImplementHasTypeArgs] = true
	}
	t.flags(attrs)
	src := r.endpoint(id)
	r.emit(relation.Implement, src, t.Endpoint(), attrs, body)
	if super != nil {
		r.emitTypeArgs(src, super, f.cur, t.QN, 1)
	}

	inner := r.enter(body, f)
	for _, c := range namedChildren(body) {
		r.visit(c, inner)
	}
}

func (r *resolver) methodDecl(n *sitter.Node, f frame) {
	id := r.symbolOf(n)
	if id == 0 {
		return
	}
	sym := r.a.Symbol(id)
	ms := sym.Body
	src := r.endpoint(id)
	f = frame{cur: ms, src: src}

	r.annotations(src, n, ms, targetMethod)
	if t := n.ChildByFieldName("type"); t != nil && t.Type() != "void_type" {
		r.returnEdge(src, n, t, ms)
	}
	r.parameters(src, n, ms)
	if th := childOfType(n, "throws"); th != nil {
		for i, tn := range namedChildren(th) {
			t := r.typeOfNode(tn, ms)
			attrs := relation.Attrs{
				relation.AstKind:          "throws",
				relation.RawText:          compact(text(tn, r.src)),
				relation.ThrowIsSignature: true,
				relation.ThrowIndex:       i,
			}
			if r.unchecked(t) {
				attrs[relation.ThrowIsRuntime] = true
			}
			t.flags(attrs)
			r.emit(relation.Throw, src, t.Endpoint(), attrs, tn)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range namedChildren(body) {
			r.visit(c, f)
		}
	}
}

func (r *resolver) returnEdge(src relation.Endpoint, n, tn *sitter.Node, ms scope.ScopeID) {
	t := r.typeOfNode(tn, ms)
	t.Dims += dimensions(n.ChildByFieldName("dimensions"), r.src)
	attrs := relation.Attrs{
		relation.AstKind: tn.Type(),
		relation.RawText: compact(text(tn, r.src)),
	}
	if t.Primitive() {
		attrs[relation.ReturnIsPrimitive] = true
	}
	if t.Dims > 0 {
		attrs[relation.ReturnIsArray] = true
		attrs[relation.ReturnDimensions] = t.Dims
	}
	if typeArgsNode(tn) != nil {
		attrs[relation.ReturnHasTypeArgs] = true
	}
	if t.TypeParam() {
		attrs[relation.ReturnIsTypeVariable] = true
	}
	t.flags(attrs)
	r.emit(relation.Return, src, t.Endpoint(), attrs, tn)
	r.emitTypeArgs(src, tn, ms, t.QN, 1)
}

// parameters emits PARAMETER edges for the formal parameters of a method,
// constructor or explicitly typed lambda.
func (r *resolver) parameters(src relation.Endpoint, n *sitter.Node, body scope.ScopeID) {
	for i, p := range formalParams(n) {
		tn := typeNodeOf(p)
		if tn == nil {
			continue
		}
		t := r.typeOfNode(tn, body)
		t.Dims += dimensions(p.ChildByFieldName("dimensions"), r.src)
		mods, annos := modifiers(p, r.src)
		varargs := p.Type() == "spread_parameter"
		attrs := relation.Attrs{
			relation.AstKind:        p.Type(),
			relation.RawText:        compact(text(p, r.src)),
			relation.ParameterName:  text(declaredName(p), r.src),
			relation.ParameterIndex: i,
		}
		if varargs {
			attrs[relation.ParameterIsVarargs] = true
		}
		for _, m := range mods {
			if m == "final" {
				attrs[relation.ParameterIsFinal] = true
			}
		}
		if len(annos) > 0 {
			attrs[relation.ParameterHasAnnotation] = true
		}
		if t.Dims > 0 || varargs {
			attrs[relation.ParameterIsArray] = true
		}
		t.flags(attrs)
		r.emit(relation.Parameter, src, t.Endpoint(), attrs, p)
		r.emitTypeArgs(src, tn, body, t.QN, 1)
		if pid := r.symbolOf(p); pid != 0 {
			r.annotations(r.endpoint(pid), p, body, targetParam)
		}
	}
}

func (r *resolver) fieldDecl(n *sitter.Node, f frame) {
	tn := n.ChildByFieldName("type")
	for _, decl := range declarators(n) {
		id := r.symbolOf(decl)
		if id == 0 {
			continue
		}
		src := r.endpoint(id)
		r.annotations(src, n, f.cur, targetField)
		r.emitTypeArgs(src, tn, f.cur, "", 1)
		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}
		r.initAssign(src, src, decl, value)
		r.visit(value, frame{cur: f.cur, src: src})
	}
}

func (r *resolver) enumConstant(n *sitter.Node, f frame) {
	id := r.symbolOf(n)
	if id == 0 {
		return
	}
	src := r.endpoint(id)
	cf := frame{cur: f.cur, src: src}
	r.annotations(src, n, f.cur, targetField)

	args := n.ChildByFieldName("arguments")
	argc := len(exprChildren(args))
	owner := r.enclosingType(f.cur)
	if hit := r.findCtor(owner, argc); hit.m != nil {
		b := r.memberBinding(hit, owner)
		attrs := relation.Attrs{
			relation.AstKind:           n.Type(),
			relation.RawText:           compact(text(n, r.src)),
			relation.CallIsConstructor: true,
			relation.CallArgsCount:     argc,
		}
		if hit.m.Implicit {
			attrs[relation.CallIsImplicit] = true
		}
		r.emit(relation.Call, src, b.Target, b.attrs(attrs), n)
	}
	r.arguments(args, cf)
	if body := n.ChildByFieldName("body"); body != nil {
		r.anonymousBody(body, nil, cf)
	}
}

func (r *resolver) localDecl(n *sitter.Node, f frame) {
	tn := n.ChildByFieldName("type")
	r.emitTypeArgs(f.src, tn, f.cur, "", 1)
	for _, decl := range declarators(n) {
		value := decl.ChildByFieldName("value")
		if value != nil {
			r.visit(value, f)
		}
		id := r.symbolOf(decl)
		if id == 0 {
			continue
		}
		r.annotations(r.endpoint(id), n, f.cur, targetLocalVar)
		if value != nil {
			r.initAssign(f.src, r.endpoint(id), decl, value)
		}
	}
}

// initAssign emits the ASSIGN of a declarator's initializer.
func (r *resolver) initAssign(src, tgt relation.Endpoint, decl, value *sitter.Node) {
	attrs := relation.Attrs{
		relation.AstKind:             decl.Type(),
		relation.RawText:             compact(text(decl, r.src)),
		relation.AssignOperator:      "=",
		relation.AssignValue:         compact(text(value, r.src)),
		relation.AssignIsInitializer: true,
	}
	r.emit(relation.Assign, src, tgt, attrs, decl)
}

func (r *resolver) enhancedFor(n *sitter.Node, f frame) {
	outer := f
	if s := r.a.Scope(f.cur); s.Kind == scope.KindClause {
		outer.cur = s.Parent
	}
	r.visit(n.ChildByFieldName("value"), outer)
	tn := n.ChildByFieldName("type")
	r.emitTypeArgs(f.src, tn, f.cur, "", 1)
	if id := r.symbolOf(n.ChildByFieldName("name")); id != 0 {
		r.annotations(r.endpoint(id), n, f.cur, targetLocalVar)
	}
	body := n.ChildByFieldName("body")
	if body != nil && body.Type() == "block" {
		for _, c := range namedChildren(body) {
			r.visit(c, f)
		}
		return
	}
	r.visit(body, f)
}

func (r *resolver) resource(n *sitter.Node, f frame) {
	value := n.ChildByFieldName("value")
	id := r.symbolOf(n)
	if id == 0 {
		for _, c := range namedChildren(n) {
			r.visit(c, f)
		}
		return
	}
	r.emitTypeArgs(f.src, n.ChildByFieldName("type"), f.cur, "", 1)
	r.annotations(r.endpoint(id), n, f.cur, targetLocalVar)
	if value != nil {
		r.visit(value, f)
		r.initAssign(f.src, r.endpoint(id), n, value)
	}
}

func (r *resolver) lambda(n *sitter.Node, f frame) {
	if params := n.ChildByFieldName("parameters"); params != nil && params.Type() == "formal_parameters" {
		r.parameters(f.src, n, f.cur)
	}
	body := n.ChildByFieldName("body")
	if body != nil && body.Type() == "block" {
		for _, c := range namedChildren(body) {
			r.visit(c, f)
		}
		return
	}
	r.visit(body, f)
}

// annotations emits one ANNOTATION per annotation in the modifiers of n,
// sourced from the annotated symbol.
func (r *resolver) annotations(src relation.Endpoint, n *sitter.Node, cur scope.ScopeID, target string) {
	_, annos := modifiers(n, r.src)
	for _, a := range annos {
		name := a.ChildByFieldName("name")
		if name == nil {
			continue
		}
		t := r.resolveTypeName(r.lexical(cur), text(name, r.src))
		ep := t.Endpoint()
		if t.External {
			ep.Kind = string(scope.SymAnnotationType)
		}
		attrs := relation.Attrs{
			relation.AstKind:          a.Type(),
			relation.RawText:          compact(text(a, r.src)),
			relation.AnnotationTarget: target,
		}
		if args := a.ChildByFieldName("arguments"); args != nil {
			v := compact(text(args, r.src))
			v = strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
			attrs[relation.AnnotationValue] = v
			var pairs []string
			for _, p := range childrenOfType(args, "element_value_pair") {
				k := text(p.ChildByFieldName("key"), r.src)
				pairs = append(pairs, k+"="+compact(text(p.ChildByFieldName("value"), r.src)))
			}
			if len(pairs) > 0 {
				attrs[relation.AnnotationParams] = strings.Join(pairs, ",")
			}
		}
		t.flags(attrs)
		r.emit(relation.Annotation, src, ep, attrs, a)
	}
}
