package javasem

import (
	"slices"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/qname"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// TypeRef is a resolved type. QN names the element type for arrays.
type TypeRef struct {
	QN         string
	Kind       scope.SymbolKind
	Dims       int
	External   bool
	Unresolved bool
}

// Known reports whether the type has a name.
func (t TypeRef) Known() bool { return t.QN != "" }

// Primitive reports whether the element type is a primitive.
func (t TypeRef) Primitive() bool { return t.Kind == scope.SymPrimitive }

// TypeParam reports whether the type is a type variable.
func (t TypeRef) TypeParam() bool { return t.Kind == scope.SymTypeParam }

// Internal reports whether the type is declared in the analyzed sources.
func (t TypeRef) Internal() bool {
	return t.Known() && !t.External && !t.Primitive() && !t.TypeParam()
}

// Element returns the type with array dimensions removed.
func (t TypeRef) Element() TypeRef {
	t.Dims = 0
	return t
}

// Endpoint returns the relation endpoint for the element type.
func (t TypeRef) Endpoint() relation.Endpoint {
	kind := t.Kind
	if kind == "" {
		kind = scope.SymUnknown
	}
	return relation.Endpoint{QualifiedName: t.QN, Kind: string(kind)}
}

func (t TypeRef) flags(a relation.Attrs) {
	if t.External {
		a[relation.External] = true
	}
	if t.Unresolved {
		a[relation.Unresolved] = true
	}
}

func primitive(name string, dims int) TypeRef {
	return TypeRef{QN: name, Kind: scope.SymPrimitive, Dims: dims}
}

func external(qn string) TypeRef {
	return TypeRef{QN: qn, Kind: scope.SymClass, External: true}
}

// typeCtx is the place a type name is resolved from: a lexical scope of the
// current unit, or the declaring type of a foreign member.
type typeCtx struct {
	scope      scope.ScopeID
	enclosing  string
	imports    *index.Imports
	typeParams []string
}

func (r *resolver) lexical(cur scope.ScopeID) typeCtx {
	return typeCtx{scope: cur, imports: r.d.imports}
}

// ctxOf returns the context a TypeInfo's own declarations are resolved in.
// Types of the current unit resolve lexically from their declaring scope.
func (r *resolver) ctxOf(ti *index.TypeInfo) typeCtx {
	if ti.Unit == r.d.unit.Path {
		if id, ok := r.a.ByQualifiedName(ti.QualifiedName); ok {
			return typeCtx{scope: r.a.Symbol(id).Body, imports: r.d.imports}
		}
	}
	imps := ti.Imports
	if imps == nil {
		imps = index.NewImports(ti.Package)
	}
	return typeCtx{enclosing: ti.QualifiedName, imports: imps, typeParams: ti.TypeParams}
}

// memberCtx returns the context a member's declared type is resolved in.
func (r *resolver) memberCtx(m *index.Member) typeCtx {
	ti, ok := r.ix.Type(m.Owner)
	if !ok {
		return typeCtx{imports: index.NewImports("")}
	}
	ctx := r.ctxOf(ti)
	if ctx.scope != 0 {
		if id, ok := r.a.ByQualifiedName(m.QualifiedName); ok && r.a.Symbol(id).Body != 0 {
			ctx.scope = r.a.Symbol(id).Body
		}
	}
	return ctx
}

// resolveTypeName resolves written type text such as "Map.Entry<K, V>[]".
func (r *resolver) resolveTypeName(ctx typeCtx, written string) TypeRef {
	erased := qname.Erase(written)
	if i := strings.IndexByte(erased, '|'); i >= 0 {
		erased = erased[:i]
	}
	if i := strings.IndexByte(erased, '&'); i >= 0 {
		erased = erased[:i]
	}
	dims := strings.Count(erased, "[]")
	base := strings.TrimRight(erased, "[]")
	switch {
	case base == "":
		return TypeRef{}
	case index.IsPrimitive(base):
		return primitive(base, dims)
	case base == "var":
		return TypeRef{Dims: dims}
	}

	head, rest, qualified := strings.Cut(base, ".")
	ref := r.resolveHead(ctx, head)
	if qualified {
		if ref.Unresolved && startsLower(head) {
			ref = r.qualified(base)
		} else {
			ref = r.memberPath(ref, strings.Split(rest, "."))
		}
	}
	ref.Dims = dims
	return ref
}

func startsLower(s string) bool {
	for _, c := range s {
		return unicode.IsLower(c)
	}
	return false
}

// qualified resolves a package-qualified name, allowing member types after
// the longest indexed prefix.
func (r *resolver) qualified(name string) TypeRef {
	if ti, ok := r.ix.Type(name); ok {
		return TypeRef{QN: name, Kind: ti.Kind}
	}
	parts := strings.Split(name, ".")
	for i := len(parts) - 1; i > 0; i-- {
		prefix := strings.Join(parts[:i], ".")
		if ti, ok := r.ix.Type(prefix); ok {
			return r.memberPath(TypeRef{QN: prefix, Kind: ti.Kind}, parts[i:])
		}
	}
	return external(name)
}

func (r *resolver) memberPath(ref TypeRef, segs []string) TypeRef {
	for _, seg := range segs {
		if !ref.External && ref.Known() {
			if mt, ok := r.memberType(ref.QN, seg); ok {
				ref = r.typeRef(mt)
				continue
			}
		}
		ref = TypeRef{QN: ref.QN + "." + seg, Kind: scope.SymClass, External: true, Unresolved: ref.Unresolved}
	}
	return ref
}

func (r *resolver) typeRef(qn string) TypeRef {
	if ti, ok := r.ix.Type(qn); ok {
		return TypeRef{QN: qn, Kind: ti.Kind}
	}
	return external(qn)
}

// resolveHead resolves the first segment of a type name.
func (r *resolver) resolveHead(ctx typeCtx, head string) TypeRef {
	if ctx.scope != 0 {
		for id := ctx.scope; id != 0; id = r.a.Scope(id).Parent {
			s := r.a.Scope(id)
			if sid, ok := r.a.LocalType(id, head); ok {
				sym := r.a.Symbol(sid)
				return TypeRef{QN: sym.QualifiedName, Kind: sym.Kind}
			}
			if s.Owner != 0 && slices.Contains(r.a.Symbol(s.Owner).TypeParams, head) {
				return TypeRef{QN: head, Kind: scope.SymTypeParam}
			}
			if s.Kind.TypeLike() {
				if mt, ok := r.memberType(s.Name, head); ok {
					return r.typeRef(mt)
				}
			}
		}
	}
	for t := ctx.enclosing; t != ""; {
		ti, ok := r.ix.Type(t)
		if !ok {
			break
		}
		if ti.Name == head {
			return TypeRef{QN: t, Kind: ti.Kind}
		}
		if slices.Contains(ti.TypeParams, head) {
			return TypeRef{QN: head, Kind: scope.SymTypeParam}
		}
		if mt, ok := r.memberType(t, head); ok {
			return r.typeRef(mt)
		}
		t = ti.Outer
	}
	if slices.Contains(ctx.typeParams, head) {
		return TypeRef{QN: head, Kind: scope.SymTypeParam}
	}

	imps := ctx.imports
	if qn, ok := imps.Single[head]; ok {
		return r.typeRef(qn)
	}
	if qn, ok := r.ix.TypeInPackage(imps.Package, head); ok {
		return r.typeRef(qn)
	}
	for _, od := range imps.OnDemand {
		if qn, ok := r.ix.TypeInPackage(od, head); ok {
			return r.typeRef(qn)
		}
		cand := od + "." + head
		if ti, ok := r.ix.Type(cand); ok {
			return TypeRef{QN: cand, Kind: ti.Kind}
		}
		if r.ix.IsExternalType(cand) || index.IsJDKType(cand) {
			return external(cand)
		}
	}
	if qn, ok := index.JavaLang(head); ok {
		return external(qn)
	}
	if qn, ok := r.ix.ExternalBySimple(head); ok {
		return external(qn)
	}
	if qn, ok := index.JDKType(head); ok {
		return external(qn)
	}
	return TypeRef{QN: head, Kind: scope.SymClass, External: true, Unresolved: true}
}

// memberType finds a member type declared in typeQN or inherited by it.
func (r *resolver) memberType(typeQN, name string) (string, bool) {
	seen := map[string]bool{}
	queue := []string{typeQN}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t] {
			continue
		}
		seen[t] = true
		ti, ok := r.ix.Type(t)
		if !ok {
			continue
		}
		if mt, ok := ti.MemberTypes[name]; ok {
			return mt, true
		}
		for _, s := range r.supers(t) {
			if s.Internal() {
				queue = append(queue, s.QN)
			}
		}
	}
	return "", false
}

// supers returns the resolved supertypes of an indexed type. Results are
// memoized per unit; a cycle yields no supertypes for the repeated type.
func (r *resolver) supers(qn string) []TypeRef {
	if v, ok := r.superCache[qn]; ok {
		return v
	}
	r.superCache[qn] = nil
	ti, ok := r.ix.Type(qn)
	if !ok {
		return nil
	}
	ctx := r.ctxOf(ti)
	if ctx.scope != 0 {
		// Supertypes are written outside the type's own body.
		ctx.scope = r.a.Scope(ctx.scope).Parent
	}
	out := make([]TypeRef, 0, len(ti.Supertypes))
	for _, s := range ti.Supertypes {
		out = append(out, r.resolveTypeName(ctx, s))
	}
	r.superCache[qn] = out
	return out
}

// superclass returns the direct superclass of an indexed type.
func (r *resolver) superclass(qn string) TypeRef {
	ti, ok := r.ix.Type(qn)
	if !ok {
		return external("java.lang.Object")
	}
	supers := r.supers(qn)
	if (ti.HasSuperclass || ti.Kind == scope.SymAnonymous) && len(supers) > 0 {
		return supers[0]
	}
	switch ti.Kind {
	case scope.SymEnum:
		return external("java.lang.Enum")
	case scope.SymRecord:
		return external("java.lang.Record")
	}
	return external("java.lang.Object")
}

// isSubtype reports whether sub is target or inherits from it.
func (r *resolver) isSubtype(sub, target string) bool {
	seen := map[string]bool{}
	queue := []string{sub}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t == target {
			return true
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		for _, s := range r.supers(t) {
			if s.Known() {
				queue = append(queue, s.QN)
			}
		}
	}
	return false
}

// typeOfNode resolves a type syntax node in the lexical scope cur.
func (r *resolver) typeOfNode(n *sitter.Node, cur scope.ScopeID) TypeRef {
	if n == nil {
		return TypeRef{}
	}
	switch n.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return primitive(text(n, r.src), 0)
	case "array_type":
		el := r.typeOfNode(n.ChildByFieldName("element"), cur)
		el.Dims += dimensions(n.ChildByFieldName("dimensions"), r.src)
		return el
	case "generic_type":
		return r.typeOfNode(genericBase(n), cur)
	case "annotated_type":
		kids := namedChildren(n)
		if len(kids) > 0 {
			return r.typeOfNode(kids[len(kids)-1], cur)
		}
	}
	return r.resolveTypeName(r.lexical(cur), text(n, r.src))
}

func genericBase(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() != "type_arguments" {
			return c
		}
	}
	return nil
}

// typeArgsNode returns the type_arguments of a (possibly array or
// annotated) generic type node.
func typeArgsNode(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "generic_type":
			return childOfType(n, "type_arguments")
		case "array_type":
			n = n.ChildByFieldName("element")
		case "annotated_type":
			kids := namedChildren(n)
			if len(kids) == 0 {
				return nil
			}
			n = kids[len(kids)-1]
		case "scoped_type_identifier":
			// Outer<String>.Inner carries arguments on the qualifier.
			if g := childOfType(n, "generic_type"); g != nil {
				return childOfType(g, "type_arguments")
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// emitTypeArgs emits one TYPE_ARG per type-argument position of the type
// node, recursing into nested arguments with increasing depth.
func (r *resolver) emitTypeArgs(src relation.Endpoint, n *sitter.Node, cur scope.ScopeID, parent string, depth int) {
	args := typeArgsNode(n)
	if args == nil {
		return
	}
	if parent == "" {
		parent = r.typeOfNode(n, cur).QN
	}
	for i, arg := range namedChildren(args) {
		attrs := relation.Attrs{
			relation.AstKind:       arg.Type(),
			relation.RawText:       compact(text(arg, r.src)),
			relation.TypeArgIndex:  i,
			relation.TypeArgDepth:  depth,
			relation.TypeArgParent: parent,
		}
		bound := arg
		var ref TypeRef
		if arg.Type() == "wildcard" {
			attrs[relation.TypeArgIsWildcard] = true
			bound = wildcardBound(arg)
			switch {
			case bound == nil:
				attrs[relation.TypeArgWildcardKind] = "unbounded"
				ref = external("java.lang.Object")
			case childOfType(arg, "super") != nil || hasToken(arg, "super"):
				attrs[relation.TypeArgWildcardKind] = "super"
			default:
				attrs[relation.TypeArgWildcardKind] = "extends"
			}
		}
		if bound != nil {
			ref = r.typeOfNode(bound, cur)
		}
		if !ref.Known() {
			continue
		}
		if ref.Dims > 0 {
			attrs[relation.TypeArgIsArray] = true
		}
		ref.flags(attrs)
		r.emit(relation.TypeArg, src, ref.Endpoint(), attrs, arg)
		if bound != nil {
			r.emitTypeArgs(src, bound, cur, ref.QN, depth+1)
		}
	}
}

func wildcardBound(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "annotation", "marker_annotation", "super":
			continue
		}
		return c
	}
	return nil
}
