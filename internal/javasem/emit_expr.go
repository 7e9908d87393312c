package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// USE roles.
const (
	useRead     = "read"
	useArgument = "argument"
	useReceiver = "receiver"
	useOperand  = "operand"
)

func (r *resolver) call(n *sitter.Node, f frame) {
	b, recv, argc := r.callBinding(n, f)
	obj := n.ChildByFieldName("object")
	attrs := relation.Attrs{
		relation.AstKind:       n.Type(),
		relation.RawText:       compact(text(n, r.src)),
		relation.CallArgsCount: argc,
	}
	if obj != nil {
		attrs[relation.CallReceiver] = compact(text(obj, r.src))
		if recv.typ.Known() {
			attrs[relation.CallReceiverType] = recv.typ.QN + strings.Repeat("[]", recv.typ.Dims)
		}
		switch inner := unwrapParens(obj); inner.Type() {
		case "cast_expression":
			attrs[relation.CallReceiverCastType] = r.typeOfNode(inner.ChildByFieldName("type"), f.cur).QN
		case "method_invocation":
			attrs[relation.CallIsChained] = true
		}
	}
	if recv.static() || b.Member != nil && b.Member.Static() {
		attrs[relation.CallIsStatic] = true
	}
	if b.Inherited {
		attrs[relation.CallIsInherited] = true
	}
	if b.Member != nil {
		if b.Member.Varargs {
			attrs[relation.CallIsVarargs] = true
		}
		if b.Member.Implicit {
			attrs[relation.CallIsImplicit] = true
		}
	}
	if ta := n.ChildByFieldName("type_arguments"); ta != nil {
		attrs[relation.CallTypeArguments] = compact(text(ta, r.src))
	}
	r.emit(relation.Call, f.src, b.Target, b.attrs(attrs), n)
	r.ambiguity(b, n)
	r.receiverUse(obj, recv, f)
	r.arguments(n.ChildByFieldName("arguments"), f)
}

// receiverUse emits the relations of a call or field access receiver. Type,
// package, this and super receivers produce nothing of their own.
func (r *resolver) receiverUse(obj *sitter.Node, recv receiver, f frame) {
	if obj == nil || !recv.plain() {
		return
	}
	switch inner := unwrapParens(obj); inner.Type() {
	case "identifier":
		r.nameUse(inner, f, useReceiver, -1)
	case "field_access":
		r.fieldUse(inner, f, useReceiver, -1)
	default:
		r.visit(obj, f)
	}
}

func (r *resolver) arguments(args *sitter.Node, f frame) {
	for i, a := range exprChildren(args) {
		switch inner := unwrapParens(a); inner.Type() {
		case "identifier":
			r.nameUse(inner, f, useArgument, i)
		case "field_access":
			r.fieldUse(inner, f, useArgument, i)
		default:
			r.visit(a, f)
		}
	}
}

// methodRef emits a functional CALL for Type::method, expr::method and
// Type::new.
func (r *resolver) methodRef(n *sitter.Node, f frame) {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return
	}
	obj := kids[0]
	recv := r.receiverOf(obj, f)
	attrs := relation.Attrs{
		relation.AstKind:          n.Type(),
		relation.RawText:          compact(text(n, r.src)),
		relation.CallReceiver:     compact(text(obj, r.src)),
		relation.CallIsFunctional: true,
	}
	if recv.typ.Known() {
		attrs[relation.CallReceiverType] = recv.typ.QN
	}
	if ta := childOfType(n, "type_arguments"); ta != nil {
		attrs[relation.CallTypeArguments] = compact(text(ta, r.src))
	}

	var b Binding
	if hasToken(n, "new") {
		attrs[relation.CallIsConstructor] = true
		b = r.ctorBinding(recv.typ, -1, f.cur)
	} else {
		name := kids[len(kids)-1]
		if len(kids) < 2 || name.Type() != "identifier" {
			r.skipped(n)
			return
		}
		b = r.selfReceiver(r.resolveMember(f.cur, recv.typ, text(name, r.src), true, -1), recv, f.cur)
		if recv.static() || b.Member != nil && b.Member.Static() {
			attrs[relation.CallIsStatic] = true
		}
	}
	if b.Inherited {
		attrs[relation.CallIsInherited] = true
	}
	r.emit(relation.Call, f.src, b.Target, b.attrs(attrs), n)
	r.ambiguity(b, n)
	r.receiverUse(obj, recv, f)
}

// ctorBinding binds a constructor of t by argument count. Constructors of
// types outside the index are named owner.SimpleName.
func (r *resolver) ctorBinding(t TypeRef, argc int, cur scope.ScopeID) Binding {
	switch {
	case !t.Known():
		b := unresolved("<init>")
		b.Target.Kind = string(scope.SymConstructor)
		return b
	case t.Dims > 0 || !t.Internal():
		name := t.QN[strings.LastIndexByte(t.QN, '.')+1:]
		b := externalMember(t.QN, name, scope.SymConstructor)
		b.Unresolved = t.Unresolved
		return b
	}
	if hit := r.findCtor(t.QN, argc); hit.m != nil {
		return r.memberBinding(hit, r.enclosingType(cur))
	}
	b := unresolved(t.QN + "." + t.QN[strings.LastIndexByte(t.QN, '.')+1:])
	b.Target.Kind = string(scope.SymConstructor)
	return b
}

// ctorCall handles this(...) and super(...) delegation.
func (r *resolver) ctorCall(n *sitter.Node, f frame) {
	args := n.ChildByFieldName("arguments")
	argc := len(exprChildren(args))
	ctor := n.ChildByFieldName("constructor")
	own := r.enclosingType(f.cur)
	t := r.typeRef(own)
	if ctor != nil && ctor.Type() == "super" {
		t = r.superclass(own)
	}
	b := r.ctorBinding(t, argc, f.cur)
	attrs := relation.Attrs{
		relation.AstKind:           n.Type(),
		relation.RawText:           compact(text(n, r.src)),
		relation.CallReceiver:      text(ctor, r.src),
		relation.CallIsConstructor: true,
		relation.CallArgsCount:     argc,
	}
	if ctor != nil && ctor.Type() == "super" {
		attrs[relation.CallIsInherited] = true
	}
	if b.Member != nil && b.Member.Varargs {
		attrs[relation.CallIsVarargs] = true
	}
	r.emit(relation.Call, f.src, b.Target, b.attrs(attrs), n)
	if obj := n.ChildByFieldName("object"); obj != nil {
		r.visit(obj, f)
	}
	r.arguments(args, f)
}

// nameUse emits a USE for a simple name in value position. argIndex is -1
// outside argument lists.
func (r *resolver) nameUse(n *sitter.Node, f frame, role string, argIndex int) {
	r.useBinding(n, f, r.resolveName(f.cur, text(n, r.src), n.StartByte()), role, argIndex)
}

func (r *resolver) useBinding(n *sitter.Node, f frame, b Binding, role string, argIndex int) {
	attrs := relation.Attrs{
		relation.AstKind: n.Type(),
		relation.RawText: text(n, r.src),
		relation.UseRole: role,
	}
	if argIndex >= 0 {
		attrs[relation.ArgumentIndex] = argIndex
	}
	if b.Member != nil && b.Member.Static() {
		attrs[relation.UseIsStatic] = true
	}
	if len(b.Crossed) > 0 {
		attrs[relation.UseIsCapture] = true
	}
	r.emit(relation.Use, f.src, b.Target, b.attrs(attrs), n)
	r.ambiguity(b, n)
	r.capture(b, f, n)
}

// fieldUse emits a USE for obj.field and the relations of its receiver.
func (r *resolver) fieldUse(n *sitter.Node, f frame, role string, argIndex int) {
	obj := n.ChildByFieldName("object")
	field := n.ChildByFieldName("field")
	if obj == nil || field == nil || field.Type() == "this" {
		return
	}
	recv := r.receiverOf(obj, f)
	if recv.kind == "package" {
		return
	}
	name := text(field, r.src)
	if recv.typ.Dims > 0 && name == "length" {
		r.receiverUse(obj, recv, f)
		return
	}
	b := r.selfReceiver(r.resolveMember(f.cur, recv.typ, name, false, 0), recv, f.cur)
	attrs := relation.Attrs{
		relation.AstKind:     n.Type(),
		relation.RawText:     compact(text(n, r.src)),
		relation.UseRole:     role,
		relation.UseReceiver: compact(text(obj, r.src)),
	}
	if argIndex >= 0 {
		attrs[relation.ArgumentIndex] = argIndex
	}
	if recv.static() || b.Member != nil && b.Member.Static() {
		attrs[relation.UseIsStatic] = true
	}
	r.emit(relation.Use, f.src, b.Target, b.attrs(attrs), n)
	r.ambiguity(b, n)
	r.receiverUse(obj, recv, f)
}

// assign emits one ASSIGN per target of a possibly chained assignment,
// outermost target first. Every target shares the innermost value.
func (r *resolver) assign(n *sitter.Node, f frame) {
	var chain []*sitter.Node
	value := n
	for {
		inner := unwrapParens(value)
		if inner == nil || inner.Type() != "assignment_expression" {
			break
		}
		chain = append(chain, inner)
		value = inner.ChildByFieldName("right")
	}
	valueText := compact(text(value, r.src))
	for _, a := range chain {
		op := text(a.ChildByFieldName("operator"), r.src)
		attrs := relation.Attrs{
			relation.AstKind:        a.Type(),
			relation.RawText:        compact(text(a, r.src)),
			relation.AssignOperator: op,
			relation.AssignValue:    valueText,
		}
		if op != "=" {
			attrs[relation.AssignIsCompound] = true
		}
		if len(chain) > 1 {
			attrs[relation.AssignIsChained] = true
		}
		r.lvalue(a.ChildByFieldName("left"), a, attrs, f)
	}
	switch inner := unwrapParens(value); {
	case inner == nil:
	case inner.Type() == "identifier":
		r.nameUse(inner, f, useRead, -1)
	default:
		r.visit(value, f)
	}
}

// lvalue resolves the target of a write and emits the ASSIGN with attrs.
// Reads inside the target (receivers, array indexes) are emitted after it.
func (r *resolver) lvalue(left, site *sitter.Node, attrs relation.Attrs, f frame) {
	left = unwrapParens(left)
	if left == nil {
		return
	}
	switch left.Type() {
	case "identifier":
		b := r.resolveName(f.cur, text(left, r.src), left.StartByte())
		r.emit(relation.Assign, f.src, b.Target, b.attrs(attrs), site)
		r.ambiguity(b, left)
		r.capture(b, f, left)

	case "field_access":
		obj := left.ChildByFieldName("object")
		field := left.ChildByFieldName("field")
		if obj == nil || field == nil {
			r.skipped(left)
			return
		}
		recv := r.receiverOf(obj, f)
		b := r.selfReceiver(r.resolveMember(f.cur, recv.typ, text(field, r.src), false, 0), recv, f.cur)
		attrs[relation.AssignReceiver] = compact(text(obj, r.src))
		r.emit(relation.Assign, f.src, b.Target, b.attrs(attrs), site)
		r.ambiguity(b, left)
		r.receiverUse(obj, recv, f)

	case "array_access":
		array := left.ChildByFieldName("array")
		idx := left.ChildByFieldName("index")
		if _, ok := attrs[relation.AssignIndexExpression]; !ok {
			attrs[relation.AssignIndexExpression] = compact(text(idx, r.src))
		}
		switch inner := unwrapParens(array); {
		case inner == nil:
			r.skipped(left)
		case inner.Type() == "identifier", inner.Type() == "field_access", inner.Type() == "array_access":
			r.lvalue(inner, site, attrs, f)
		default:
			b := unresolved(compact(text(inner, r.src)))
			r.emit(relation.Assign, f.src, b.Target, b.attrs(attrs), site)
			r.visit(array, f)
		}
		r.visit(idx, f)

	default:
		r.skipped(left)
	}
}

func (r *resolver) update(n *sitter.Node, f frame) {
	operand := childOfType(n, "identifier", "field_access", "array_access", "parenthesized_expression")
	if operand == nil {
		r.skipped(n)
		return
	}
	op := "++"
	if hasToken(n, "--") {
		op = "--"
	}
	attrs := relation.Attrs{
		relation.AstKind:             n.Type(),
		relation.RawText:             compact(text(n, r.src)),
		relation.AssignOperator:      op,
		relation.AssignIsUnaryUpdate: true,
	}
	if operand.StartByte() == n.StartByte() {
		attrs[relation.AssignIsPostfix] = true
	}
	r.lvalue(operand, n, attrs, f)
}

func (r *resolver) cast(n *sitter.Node, f frame) {
	value := n.ChildByFieldName("value")
	for _, tn := range childrenByField(n, "type") {
		t := r.typeOfNode(tn, f.cur)
		attrs := relation.Attrs{
			relation.AstKind:     n.Type(),
			relation.RawText:     compact(text(n, r.src)),
			relation.CastOperand: compact(text(value, r.src)),
		}
		if t.Primitive() && t.Dims == 0 {
			attrs[relation.CastIsPrimitive] = true
		}
		t.flags(attrs)
		r.emit(relation.Cast, f.src, t.Endpoint(), attrs, n)
		r.emitTypeArgs(f.src, tn, f.cur, t.QN, 1)
	}
	r.operand(value, f)
}

// instanceOf emits a pattern CAST for `x instanceof T name` and for each
// record pattern of `x instanceof R(...)`. A plain type test is not a cast
// and only its operand is walked.
func (r *resolver) instanceOf(n *sitter.Node, f frame) {
	left := n.ChildByFieldName("left")
	r.operand(left, f)
	if name := n.ChildByFieldName("name"); name != nil {
		r.patternCast(n, n.ChildByFieldName("right"), name, left, f)
		return
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "pattern", "type_pattern", "record_pattern":
			r.patternCasts(c, n, left, f)
		}
	}
}

// patternCasts emits the CASTs of a type or record pattern tested against
// operand. Record components only bind; nested record patterns are tested.
func (r *resolver) patternCasts(p, site, operand *sitter.Node, f frame) {
	switch p.Type() {
	case "pattern":
		for _, c := range namedChildren(p) {
			r.patternCasts(c, site, operand, f)
		}
	case "type_pattern":
		if vars := patternBindings(p); len(vars) == 1 {
			r.patternCast(site, vars[0].typ, vars[0].name, operand, f)
		}
	case "record_pattern":
		kids := namedChildren(p)
		if len(kids) == 0 {
			return
		}
		r.patternCast(site, kids[0], nil, operand, f)
		for _, c := range childrenOfType(childOfType(p, "record_pattern_body"), "record_pattern") {
			r.patternCasts(c, site, operand, f)
		}
	}
}

func (r *resolver) patternCast(site, tn, name, operand *sitter.Node, f frame) {
	if tn == nil {
		return
	}
	t := r.typeOfNode(tn, f.cur)
	attrs := relation.Attrs{
		relation.AstKind:       site.Type(),
		relation.RawText:       compact(text(site, r.src)),
		relation.CastOperand:   compact(text(operand, r.src)),
		relation.CastIsPattern: true,
	}
	if name != nil {
		attrs[relation.CastPatternVariable] = text(name, r.src)
	}
	if t.Primitive() && t.Dims == 0 {
		attrs[relation.CastIsPrimitive] = true
	}
	t.flags(attrs)
	r.emit(relation.Cast, f.src, t.Endpoint(), attrs, site)
	r.emitTypeArgs(f.src, tn, f.cur, t.QN, 1)
}

// switchLabel emits the relations of one case label: a USE per constant,
// the CASTs of its patterns and the relations of its guard.
func (r *resolver) switchLabel(n *sitter.Node, f frame) {
	selector := switchSelector(n)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "pattern", "type_pattern", "record_pattern":
			r.patternCasts(c, n, selector, f)
		case "guard":
			for _, g := range namedChildren(c) {
				r.visit(g, f)
			}
		case "identifier":
			r.caseConstant(c, selector, f)
		default:
			r.visit(c, f)
		}
	}
}

// caseConstant binds a bare case label. Labels of an enum switch name
// constants of the selector's type; anything else is an ordinary name.
func (r *resolver) caseConstant(n, selector *sitter.Node, f frame) {
	name := text(n, r.src)
	if t := r.exprType(selector, f); t.Known() && t.Dims == 0 && !t.Primitive() {
		if t.External {
			if b := r.resolveName(f.cur, name, n.StartByte()); !b.Found() {
				b = externalMember(t.QN, name, scope.SymEnumConstant)
				r.useBinding(n, f, b, useRead, -1)
				return
			}
		} else if hit := r.findField(t.QN, name); hit.m != nil && hit.m.Kind == scope.SymEnumConstant {
			b := r.memberBinding(hit, r.enclosingType(f.cur))
			b.How = relation.BindStatic
			r.useBinding(n, f, b, useRead, -1)
			return
		}
	}
	r.nameUse(n, f, useRead, -1)
}

// switchSelector returns the expression a switch label is matched against.
func switchSelector(label *sitter.Node) *sitter.Node {
	n := label.Parent()
	for n != nil && n.Type() != "switch_expression" && n.Type() != "switch_statement" {
		n = n.Parent()
	}
	if n == nil {
		return nil
	}
	return unwrapParens(n.ChildByFieldName("condition"))
}

func (r *resolver) operand(n *sitter.Node, f frame) {
	switch inner := unwrapParens(n); {
	case inner == nil:
	case inner.Type() == "identifier":
		r.nameUse(inner, f, useOperand, -1)
	case inner.Type() == "field_access":
		r.fieldUse(inner, f, useOperand, -1)
	default:
		r.visit(n, f)
	}
}

func (r *resolver) throwStmt(n *sitter.Node, f frame) {
	kids := exprChildren(n)
	if len(kids) == 0 {
		r.skipped(n)
		return
	}
	expr := kids[0]
	inner := unwrapParens(expr)
	attrs := relation.Attrs{
		relation.AstKind:          n.Type(),
		relation.RawText:          compact(text(n, r.src)),
		relation.ThrowIsSignature: false,
	}
	var t TypeRef
	switch inner.Type() {
	case "object_creation_expression":
		t = r.typeOfNode(inner.ChildByFieldName("type"), f.cur)
	case "identifier":
		attrs[relation.ThrowIsRethrow] = true
		t = r.exprType(inner, f)
	default:
		t = r.exprType(inner, f)
	}
	if !t.Known() {
		t = TypeRef{QN: compact(text(inner, r.src)), Kind: scope.SymUnknown, Unresolved: true}
	}
	if r.unchecked(t) {
		attrs[relation.ThrowIsRuntime] = true
	}
	t.flags(attrs)
	r.emit(relation.Throw, f.src, t.Endpoint(), attrs, n)
	r.operand(expr, f)
}

// unchecked reports whether t is RuntimeException, Error or a subtype of
// either.
func (r *resolver) unchecked(t TypeRef) bool {
	if !t.Known() || t.Dims > 0 {
		return false
	}
	seen := map[string]bool{}
	queue := []string{t.QN}
	for len(queue) > 0 {
		qn := queue[0]
		queue = queue[1:]
		if seen[qn] {
			continue
		}
		seen[qn] = true
		if qn == "java.lang.Error" || index.IsRuntimeException(qn) {
			return true
		}
		for _, s := range r.supers(qn) {
			if s.Known() && !s.TypeParam() {
				queue = append(queue, s.QN)
			}
		}
	}
	return false
}

func (r *resolver) create(n *sitter.Node, f frame) {
	tn := n.ChildByFieldName("type")
	t := r.typeOfNode(tn, f.cur)
	args := n.ChildByFieldName("arguments")
	body := childOfType(n, "class_body")
	attrs := relation.Attrs{
		relation.AstKind:         n.Type(),
		relation.RawText:         compact(text(n, r.src)),
		relation.CreateArguments: compact(text(args, r.src)),
	}
	if ta := typeArgsNode(tn); ta != nil {
		attrs[relation.CreateTypeArguments] = compact(text(ta, r.src))
	}
	if name := r.assignedName(n); name != "" {
		attrs[relation.CreateVariableName] = name
	}
	if body != nil {
		attrs[relation.CreateIsAnonymous] = true
	}
	t.flags(attrs)
	r.emit(relation.Create, f.src, t.Endpoint(), attrs, n)
	r.emitTypeArgs(f.src, tn, f.cur, t.QN, 1)
	if obj := n.ChildByFieldName("object"); obj != nil {
		r.operand(obj, f)
	}
	r.arguments(args, f)
	if body != nil {
		r.anonymousBody(body, tn, f)
	}
}

func (r *resolver) createArray(n *sitter.Node, f frame) {
	tn := n.ChildByFieldName("type")
	t := r.exprType(n, f)
	attrs := relation.Attrs{
		relation.AstKind:          n.Type(),
		relation.RawText:          compact(text(n, r.src)),
		relation.CreateIsArray:    true,
		relation.CreateDimensions: t.Dims,
	}
	if name := r.assignedName(n); name != "" {
		attrs[relation.CreateVariableName] = name
	}
	t.flags(attrs)
	r.emit(relation.Create, f.src, t.Element().Endpoint(), attrs, n)
	r.emitTypeArgs(f.src, tn, f.cur, t.QN, 1)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "dimensions_expr", "array_initializer":
			r.visit(c, f)
		}
	}
}

// assignedName returns the variable a creation expression is stored into,
// if it is the direct value of a declarator or assignment.
func (r *resolver) assignedName(n *sitter.Node) string {
	p := n.Parent()
	for p != nil && p.Type() == "parenthesized_expression" {
		p = p.Parent()
	}
	if p == nil {
		return ""
	}
	switch p.Type() {
	case "variable_declarator", "resource":
		return text(p.ChildByFieldName("name"), r.src)
	case "assignment_expression":
		return compact(text(p.ChildByFieldName("left"), r.src))
	}
	return ""
}
