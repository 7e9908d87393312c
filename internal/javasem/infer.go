package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/scope"
)

// receiver describes the expression left of a dot.
type receiver struct {
	typ TypeRef
	// kind is "this", "super", "type", "package" or "expr"; empty for an
	// implicit receiver.
	kind string
}

func (rc receiver) static() bool { return rc.kind == "type" }

// plain reports whether the receiver is a value expression that gets its
// own relations.
func (rc receiver) plain() bool { return rc.kind == "expr" }

// receiverOf resolves the static type of a receiver expression without
// emitting relations.
func (r *resolver) receiverOf(obj *sitter.Node, f frame) receiver {
	obj = unwrapParens(obj)
	if obj == nil {
		return receiver{}
	}
	switch obj.Type() {
	case "this":
		return receiver{typ: r.typeRef(r.enclosingType(f.cur)), kind: "this"}
	case "super":
		return receiver{typ: r.superclass(r.enclosingType(f.cur)), kind: "super"}
	case "identifier":
		name := text(obj, r.src)
		b := r.resolveName(f.cur, name, obj.StartByte())
		if b.Found() || b.External {
			return receiver{typ: r.bindingType(b), kind: "expr"}
		}
		if t := r.resolveTypeName(r.lexical(f.cur), name); !t.Unresolved || !startsLower(name) {
			return receiver{typ: t, kind: "type"}
		}
		return receiver{kind: "package"}
	case "field_access":
		return r.fieldAccessReceiver(obj, f)
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type", "integral_type",
		"floating_point_type", "boolean_type":
		return receiver{typ: r.typeOfNode(obj, f.cur), kind: "type"}
	}
	return receiver{typ: r.exprType(obj, f), kind: "expr"}
}

func (r *resolver) fieldAccessReceiver(n *sitter.Node, f frame) receiver {
	obj := n.ChildByFieldName("object")
	field := n.ChildByFieldName("field")
	if field == nil {
		return receiver{}
	}
	name := text(field, r.src)
	if field.Type() == "this" {
		return receiver{typ: r.typeOfNode(obj, f.cur), kind: "this"}
	}
	inner := r.receiverOf(obj, f)
	switch inner.kind {
	case "package":
		qn := strings.Join(strings.Fields(text(n, r.src)), "")
		if t := r.qualified(qn); !t.External || index.IsJDKType(t.QN) || r.ix.IsExternalType(t.QN) {
			return receiver{typ: t, kind: "type"}
		}
		if t, ok := r.knownQualified(qn); ok {
			return receiver{typ: t, kind: "type"}
		}
		return receiver{kind: "package"}
	case "type":
		if inner.typ.Internal() {
			if hit := r.findField(inner.typ.QN, name); hit.m != nil {
				return receiver{typ: r.memberType2(hit.m), kind: "expr"}
			}
			if mt, ok := r.memberType(inner.typ.QN, name); ok {
				return receiver{typ: r.typeRef(mt), kind: "type"}
			}
		}
		if t, ok := index.JDKFieldType(inner.typ.QN + "." + name); ok {
			return receiver{typ: external(t), kind: "expr"}
		}
		if startsLower(name) {
			return receiver{kind: "expr"}
		}
		return receiver{typ: r.memberPath(inner.typ, []string{name}), kind: "type"}
	}
	b := r.resolveMember(f.cur, inner.typ, name, false, 0)
	return receiver{typ: r.bindingType(b), kind: "expr"}
}

// knownQualified accepts a dotted name whose last segment looks like a type
// as an external type.
func (r *resolver) knownQualified(qn string) (TypeRef, bool) {
	last := qn[strings.LastIndexByte(qn, '.')+1:]
	if last != "" && !startsLower(last) {
		return external(qn), true
	}
	return TypeRef{}, false
}

// bindingType returns the declared type of a bound variable, or the type a
// constant belongs to.
func (r *resolver) bindingType(b Binding) TypeRef {
	switch {
	case b.Sym != 0:
		sym := r.a.Symbol(b.Sym)
		switch sym.Type {
		case "":
			return TypeRef{}
		case "var":
			return r.varType(b.Sym)
		}
		return r.resolveTypeName(r.lexical(sym.Scope), sym.Type)
	case b.Member != nil:
		return r.memberType2(b.Member)
	case b.External:
		if t, ok := index.JDKFieldType(b.Target.QualifiedName); ok {
			return external(t)
		}
	}
	return TypeRef{}
}

// memberType2 returns the declared type of a field, or the return type of a
// method.
func (r *resolver) memberType2(m *index.Member) TypeRef {
	if m.Kind == scope.SymEnumConstant {
		return r.typeRef(m.Owner)
	}
	if m.Type == "" {
		return TypeRef{}
	}
	t := r.resolveTypeName(r.memberCtx(m), m.Type)
	if t.TypeParam() {
		return TypeRef{}
	}
	return t
}

func (r *resolver) varType(id scope.SymbolID) TypeRef {
	if t, ok := r.varTypes[id]; ok {
		return t
	}
	r.varTypes[id] = TypeRef{}
	init := r.d.varInit[id]
	if init == nil {
		return TypeRef{}
	}
	t := r.exprType(init, frame{cur: r.a.Symbol(id).Scope})
	r.varTypes[id] = t
	return t
}

// callBinding resolves a method_invocation's target without emitting.
func (r *resolver) callBinding(n *sitter.Node, f frame) (Binding, receiver, int) {
	name := text(n.ChildByFieldName("name"), r.src)
	argc := len(exprChildren(n.ChildByFieldName("arguments")))
	obj := n.ChildByFieldName("object")
	if obj == nil {
		return r.resolveCall(f.cur, name, argc), receiver{}, argc
	}
	recv := r.receiverOf(obj, f)
	b := r.resolveMember(f.cur, recv.typ, name, true, argc)
	return r.selfReceiver(b, recv, f.cur), recv, argc
}

// exprType computes the static type of an expression without emitting.
func (r *resolver) exprType(n *sitter.Node, f frame) TypeRef {
	n = unwrapParens(n)
	if n == nil {
		return TypeRef{}
	}
	switch n.Type() {
	case "identifier", "this", "super", "field_access":
		rc := r.receiverOf(n, f)
		if rc.kind == "type" || rc.kind == "package" {
			return TypeRef{}
		}
		return rc.typ
	case "method_invocation":
		b, _, _ := r.callBinding(n, f)
		if b.Member != nil {
			return r.memberType2(b.Member)
		}
		return TypeRef{}
	case "object_creation_expression":
		return r.typeOfNode(n.ChildByFieldName("type"), f.cur)
	case "array_creation_expression":
		t := r.typeOfNode(n.ChildByFieldName("type"), f.cur)
		t.Dims += len(childrenOfType(n, "dimensions_expr"))
		for _, d := range childrenOfType(n, "dimensions") {
			t.Dims += dimensions(d, r.src)
		}
		return t
	case "cast_expression":
		return r.typeOfNode(n.ChildByFieldName("type"), f.cur)
	case "array_access":
		t := r.exprType(n.ChildByFieldName("array"), f)
		if t.Dims > 0 {
			t.Dims--
		}
		return t
	case "ternary_expression":
		return r.exprType(n.ChildByFieldName("consequence"), f)
	case "assignment_expression":
		return r.exprType(n.ChildByFieldName("left"), f)
	case "string_literal", "text_block":
		return external("java.lang.String")
	case "character_literal":
		return primitive("char", 0)
	case "true", "false":
		return primitive("boolean", 0)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(strings.ToLower(text(n, r.src)), "l") {
			return primitive("long", 0)
		}
		return primitive("int", 0)
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(strings.ToLower(text(n, r.src)), "f") {
			return primitive("float", 0)
		}
		return primitive("double", 0)
	case "class_literal":
		return external("java.lang.Class")
	case "binary_expression":
		l := r.exprType(n.ChildByFieldName("left"), f)
		if l.QN == "java.lang.String" {
			return l
		}
		if rt := r.exprType(n.ChildByFieldName("right"), f); rt.QN == "java.lang.String" {
			return rt
		}
		return TypeRef{}
	}
	return TypeRef{}
}
