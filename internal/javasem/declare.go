package javasem

import (
	"errors"
	"math"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/qname"
	"github.com/jward/understory/internal/scope"
)

// declarer is the declaration pass: one top-down walk that builds the scope
// tree, registers symbols and fills the unit's TypeInfo exports.
type declarer struct {
	d   *Declared
	a   *scope.Arena
	src []byte
	pkg string

	types map[scope.SymbolID]*index.TypeInfo
	// base maps a pattern clause scope to the scope whose counters name its
	// symbols.
	base map[scope.ScopeID]scope.ScopeID
	// fieldOwner is the field or enum constant whose initializer is being
	// walked; closures inside it are named after it.
	fieldOwner scope.SymbolID
}

func newDeclarer(d *Declared) *declarer {
	return &declarer{
		d:     d,
		src:   d.unit.Source,
		types: make(map[scope.SymbolID]*index.TypeInfo),
		base:  make(map[scope.ScopeID]scope.ScopeID),
	}
}

func (w *declarer) run(root *sitter.Node) {
	w.d.imports = readImports(root, w.src)
	w.pkg = w.d.imports.Package
	w.a = scope.NewArena(w.pkg, spanOf(root))
	w.d.arena = w.a
	for _, c := range namedChildren(root) {
		w.walk(c, w.a.Root())
	}
}

func (w *declarer) walk(n *sitter.Node, cur scope.ScopeID) {
	if n == nil || isBroken(n) {
		return
	}
	if isTypeDecl(n.Type()) {
		w.typeDecl(n, cur)
		return
	}
	switch n.Type() {
	case "package_declaration", "import_declaration", "line_comment", "block_comment":
	case "method_declaration", "constructor_declaration", "compact_constructor_declaration",
		"annotation_type_element_declaration":
		w.method(n, cur)
	case "field_declaration", "constant_declaration":
		w.field(n, cur)
	case "enum_constant":
		w.enumConstant(n, cur)
	case "static_initializer":
		w.initializer(n, cur, true)
	case "block":
		w.block(n, cur)
	case "switch_block":
		w.switchBlock(n, cur)
	case "local_variable_declaration":
		w.local(n, cur)
	case "lambda_expression":
		w.lambda(n, cur)
	case "object_creation_expression":
		w.creation(n, cur)
	case "for_statement", "enhanced_for_statement", "try_with_resources_statement", "catch_clause":
		w.clause(n, cur)
	case "instanceof_expression":
		w.pattern(n, cur)
	case "assignment_expression":
		w.write(n.ChildByFieldName("left"), cur)
		w.children(n, cur)
	case "update_expression":
		w.write(childOfType(n, "identifier", "field_access", "array_access", "parenthesized_expression"), cur)
		w.children(n, cur)
	default:
		w.children(n, cur)
	}
}

func (w *declarer) children(n *sitter.Node, cur scope.ScopeID) {
	for _, c := range namedChildren(n) {
		w.walk(c, cur)
	}
}

// declare registers sym and remembers the node that declared it. A
// duplicate is recorded as a diagnostic and the first declaration wins.
func (w *declarer) declare(cur scope.ScopeID, sym scope.Symbol, n *sitter.Node) (scope.SymbolID, bool) {
	id, err := w.a.Declare(cur, sym)
	if err != nil {
		var dup *scope.DuplicateError
		if errors.As(err, &dup) {
			w.d.diags = append(w.d.diags, diagAt(n, DiagDuplicate, "%s already declared", sym.QualifiedName))
			return 0, false
		}
		panic(err)
	}
	w.d.symbolAt[keyOf(n)] = id
	return id, true
}

func (w *declarer) open(kind scope.Kind, parent scope.ScopeID, owner scope.SymbolID, name string, n *sitter.Node) scope.ScopeID {
	id := w.a.NewScope(kind, parent, owner, name, spanOf(n))
	w.d.scopeAt[keyOf(n)] = id
	return id
}

// naming returns the scope whose name and counters qualify locals declared
// in cur.
func (w *declarer) naming(cur scope.ScopeID) *scope.Scope {
	if b, ok := w.base[cur]; ok {
		cur = b
	}
	return w.a.Scope(cur)
}

func (w *declarer) localName(cur scope.ScopeID, name string) string {
	s := w.naming(cur)
	k := s.Next("local:" + name)
	if s.Kind == scope.KindBlock || s.Kind == scope.KindClause || k > 1 {
		return qname.Redeclared(s.Name, name, k)
	}
	return qname.Member(s.Name, name)
}

// closureOwner returns the name lambdas and anonymous classes in cur are
// numbered under, the scope holding the counter and the counter key prefix.
func (w *declarer) closureOwner(cur scope.ScopeID) (string, *scope.Scope, string) {
	for id := cur; id != 0; id = w.a.Scope(id).Parent {
		s := w.a.Scope(id)
		switch {
		case s.Kind.Executable():
			return s.Name, s, ""
		case s.Kind.TypeLike() && w.fieldOwner != 0:
			f := w.a.Symbol(w.fieldOwner)
			return f.QualifiedName, s, f.Name + ":"
		case s.Kind.TypeLike():
			return s.Name, s, ""
		}
	}
	return "", w.a.Scope(w.a.Root()), ""
}

func (w *declarer) ownerKind(ts scope.ScopeID) scope.SymbolKind {
	s := w.a.Scope(ts)
	if s.Owner == 0 {
		return scope.SymUnknown
	}
	return w.a.Symbol(s.Owner).Kind
}

func withModifier(mods []string, extra ...string) []string {
	out := slices.Clone(mods)
	for _, m := range extra {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func (w *declarer) typeDecl(n *sitter.Node, cur scope.ScopeID) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, w.src)
	kind := typeDeclKind(n.Type())
	mods, _ := modifiers(n, w.src)
	parent := w.a.Scope(cur)

	var qn, outer string
	local := false
	switch {
	case parent.Kind == scope.KindUnit:
		qn = qname.Type(w.pkg, name)
	case parent.Kind.TypeLike():
		qn = qname.Nested(parent.Name, name)
		outer = parent.Name
		if kind != scope.SymClass {
			mods = withModifier(mods, "static")
		}
		if pk := w.ownerKind(cur); pk == scope.SymInterface || pk == scope.SymAnnotationType {
			mods = withModifier(mods, "public", "static")
		}
		if info := w.types[parent.Owner]; info != nil && info.Local {
			local = true
		}
	default:
		qn = qname.Nested(w.naming(cur).Name, name)
		outer = w.a.Scope(w.a.EnclosingType(cur)).Name
		local = true
	}

	supers, hasSuper := supertypes(n, w.src)
	sym := scope.Symbol{
		QualifiedName: qn,
		Name:          name,
		Kind:          kind,
		Modifiers:     mods,
		Span:          spanOf(n),
		Offset:        n.StartByte(),
		TypeParams:    typeParams(n, w.src),
		Supertypes:    supers,
		HasSuperclass: hasSuper,
	}
	id, ok := w.declare(cur, sym, n)
	if !ok {
		return
	}
	ts := w.open(scope.KindType, cur, id, qn, n)
	w.a.Scope(ts).Static = w.a.Symbol(id).Static()

	info := index.NewTypeInfo(qn, name, w.pkg, kind)
	info.Modifiers = mods
	info.Outer = outer
	info.Local = local
	info.Supertypes = supers
	info.HasSuperclass = hasSuper
	info.TypeParams = sym.TypeParams
	info.Imports = w.d.imports
	w.types[id] = info
	w.d.exports = append(w.d.exports, info)
	if parent.Kind.TypeLike() {
		if pinfo := w.types[parent.Owner]; pinfo != nil {
			pinfo.MemberTypes[name] = qn
		}
	}

	if kind == scope.SymRecord {
		w.recordComponents(n, ts)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.members(body, ts)
	}
	w.desugar(id, ts)
}

func (w *declarer) members(body *sitter.Node, ts scope.ScopeID) {
	for _, c := range namedChildren(body) {
		switch c.Type() {
		case "block":
			w.initializer(c, ts, false)
		case "enum_body_declarations":
			w.members(c, ts)
		default:
			w.walk(c, ts)
		}
	}
}

// supertypes returns the written supertypes of a type declaration, the
// superclass first.
func supertypes(n *sitter.Node, src []byte) ([]string, bool) {
	var out []string
	hasSuper := false
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		if t := namedChildren(sc); len(t) > 0 {
			out = append(out, text(t[len(t)-1], src))
			hasSuper = true
		}
	}
	lists := []*sitter.Node{n.ChildByFieldName("interfaces"), childOfType(n, "extends_interfaces")}
	for _, l := range lists {
		if l == nil {
			continue
		}
		for _, tl := range childrenOfType(l, "type_list") {
			for _, t := range namedChildren(tl) {
				out = append(out, text(t, src))
			}
		}
	}
	return out, hasSuper
}

// superTypeNodes mirrors supertypes but returns the syntax nodes.
func superTypeNodes(n *sitter.Node) (super *sitter.Node, ifaces []*sitter.Node, extends bool) {
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		if t := namedChildren(sc); len(t) > 0 {
			super = t[len(t)-1]
		}
	}
	if l := n.ChildByFieldName("interfaces"); l != nil {
		for _, tl := range childrenOfType(l, "type_list") {
			ifaces = append(ifaces, namedChildren(tl)...)
		}
	}
	if l := childOfType(n, "extends_interfaces"); l != nil {
		extends = true
		for _, tl := range childrenOfType(l, "type_list") {
			ifaces = append(ifaces, namedChildren(tl)...)
		}
	}
	return super, ifaces, extends
}

func typeParams(n *sitter.Node, src []byte) []string {
	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		tps = childOfType(n, "type_parameters")
	}
	var out []string
	for _, tp := range childrenOfType(tps, "type_parameter") {
		if id := childOfType(tp, "type_identifier", "identifier"); id != nil {
			out = append(out, text(id, src))
		}
	}
	return out
}

func (w *declarer) exportMember(ts scope.ScopeID, id scope.SymbolID) {
	s := w.a.Scope(ts)
	info := w.types[s.Owner]
	if info == nil {
		return
	}
	sym := w.a.Symbol(id)
	m := &index.Member{
		QualifiedName: sym.QualifiedName,
		Name:          sym.Name,
		Kind:          sym.Kind,
		Owner:         s.Name,
		Type:          sym.Type,
		Modifiers:     sym.Modifiers,
		Params:        sym.Params,
		Varargs:       sym.Varargs,
		Implicit:      sym.Implicit,
	}
	if sym.Kind.Callable() {
		info.Methods[sym.Name] = append(info.Methods[sym.Name], m)
		return
	}
	info.Fields[sym.Name] = m
}

func (w *declarer) method(n *sitter.Node, cur scope.ScopeID) {
	ts := w.a.Scope(cur)
	if !ts.Kind.TypeLike() {
		w.children(n, cur)
		return
	}
	kind := scope.SymMethod
	name := text(n.ChildByFieldName("name"), w.src)
	if n.Type() == "constructor_declaration" || n.Type() == "compact_constructor_declaration" {
		kind = scope.SymConstructor
		name = w.a.Symbol(ts.Owner).Name
	}
	if name == "" {
		return
	}

	mods, _ := modifiers(n, w.src)
	if k := w.ownerKind(cur); k == scope.SymInterface || k == scope.SymAnnotationType {
		if !slices.Contains(mods, "private") {
			mods = withModifier(mods, "public")
		}
	}

	params := formalParams(n)
	var types []string
	varargs := false
	for _, p := range params {
		types = append(types, paramType(p, w.src))
		if p.Type() == "spread_parameter" {
			varargs = true
		}
	}
	if n.Type() == "compact_constructor_declaration" {
		types = w.a.Symbol(ts.Owner).Params
	}
	ret := ""
	if t := n.ChildByFieldName("type"); t != nil {
		ret = text(t, w.src) + text(n.ChildByFieldName("dimensions"), w.src)
	}

	qn := qname.Method(ts.Name, name, types)
	sym := scope.Symbol{
		QualifiedName: qn,
		Name:          name,
		Kind:          kind,
		Type:          ret,
		Modifiers:     mods,
		Span:          spanOf(n),
		Offset:        n.StartByte(),
		Params:        types,
		Varargs:       varargs,
		TypeParams:    typeParams(n, w.src),
	}
	id, ok := w.declare(cur, sym, n)
	if !ok {
		return
	}
	w.exportMember(cur, id)

	ms := w.open(scope.KindMethod, cur, id, qn, n)
	w.a.Scope(ms).Static = w.a.Symbol(id).Static()
	for _, p := range params {
		w.param(p, ms)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.statements(namedChildren(body), ms)
	}
}

func formalParams(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		if p.Type() == "formal_parameter" || p.Type() == "spread_parameter" {
			out = append(out, p)
		}
	}
	return out
}

func (w *declarer) param(p *sitter.Node, ms scope.ScopeID) scope.SymbolID {
	nameNode := declaredName(p)
	if nameNode == nil {
		return 0
	}
	name := text(nameNode, w.src)
	mods, _ := modifiers(p, w.src)
	sym := scope.Symbol{
		QualifiedName: w.localName(ms, name),
		Name:          name,
		Kind:          scope.SymParameter,
		Type:          paramType(p, w.src),
		Modifiers:     mods,
		Span:          spanOf(p),
		Offset:        p.StartByte(),
		Varargs:       p.Type() == "spread_parameter",
	}
	id, _ := w.declare(ms, sym, p)
	return id
}

func (w *declarer) recordComponents(n *sitter.Node, ts scope.ScopeID) {
	var types []string
	for _, p := range formalParams(n) {
		nameNode := declaredName(p)
		if nameNode == nil {
			continue
		}
		name := text(nameNode, w.src)
		typ := paramType(p, w.src)
		types = append(types, typ)
		sym := scope.Symbol{
			QualifiedName: qname.Member(w.a.Scope(ts).Name, name),
			Name:          name,
			Kind:          scope.SymField,
			Type:          typ,
			Modifiers:     []string{"private", "final"},
			Span:          spanOf(p),
			Offset:        p.StartByte(),
		}
		if id, ok := w.declare(ts, sym, p); ok {
			w.exportMember(ts, id)
		}
	}
	w.a.Symbol(w.a.Scope(ts).Owner).Params = types
}

func (w *declarer) field(n *sitter.Node, cur scope.ScopeID) {
	ts := w.a.Scope(cur)
	if !ts.Kind.TypeLike() {
		w.children(n, cur)
		return
	}
	mods, _ := modifiers(n, w.src)
	if k := w.ownerKind(cur); k == scope.SymInterface || k == scope.SymAnnotationType {
		mods = withModifier(mods, "public", "static", "final")
	}
	typ := text(n.ChildByFieldName("type"), w.src)

	for _, decl := range declarators(n) {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := text(nameNode, w.src)
		sym := scope.Symbol{
			QualifiedName: qname.Member(ts.Name, name),
			Name:          name,
			Kind:          scope.SymField,
			Type:          typ + text(decl.ChildByFieldName("dimensions"), w.src),
			Modifiers:     mods,
			Span:          spanOf(decl),
			Offset:        decl.StartByte(),
		}
		id, ok := w.declare(cur, sym, decl)
		if !ok {
			continue
		}
		w.exportMember(cur, id)
		if value := decl.ChildByFieldName("value"); value != nil {
			prev := w.fieldOwner
			w.fieldOwner = id
			w.walk(value, cur)
			w.fieldOwner = prev
		}
	}
}

func declarators(n *sitter.Node) []*sitter.Node {
	if ds := childrenByField(n, "declarator"); len(ds) > 0 {
		return ds
	}
	return childrenOfType(n, "variable_declarator")
}

func (w *declarer) enumConstant(n *sitter.Node, cur scope.ScopeID) {
	ts := w.a.Scope(cur)
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil || !ts.Kind.TypeLike() {
		return
	}
	name := text(nameNode, w.src)
	sym := scope.Symbol{
		QualifiedName: qname.Member(ts.Name, name),
		Name:          name,
		Kind:          scope.SymEnumConstant,
		Type:          ts.Name,
		Modifiers:     []string{"public", "static", "final"},
		Span:          spanOf(n),
		Offset:        n.StartByte(),
	}
	id, ok := w.declare(cur, sym, n)
	if !ok {
		return
	}
	w.exportMember(cur, id)

	prev := w.fieldOwner
	w.fieldOwner = id
	defer func() { w.fieldOwner = prev }()
	w.walk(n.ChildByFieldName("arguments"), cur)
	if body := n.ChildByFieldName("body"); body != nil {
		w.anonymous(body, cur, w.a.Symbol(ts.Owner).Name)
	}
}

func (w *declarer) initializer(n *sitter.Node, cur scope.ScopeID, static bool) {
	ts := w.a.Scope(cur)
	if !ts.Kind.TypeLike() {
		w.block(n, cur)
		return
	}
	label := "init"
	if static {
		label = "static"
	}
	k := ts.Next(label)
	qn := qname.Initializer(ts.Name, static, k)
	sym := scope.Symbol{
		QualifiedName: qn,
		Name:          qname.Simple(qn),
		Kind:          scope.SymInitializer,
		Span:          spanOf(n),
		Offset:        n.StartByte(),
	}
	if static {
		sym.Modifiers = []string{"static"}
	}
	id, ok := w.declare(cur, sym, n)
	if !ok {
		return
	}
	is := w.open(scope.KindInitializer, cur, id, qn, n)
	w.a.Scope(is).Static = static
	body := n
	if static {
		body = childOfType(n, "block")
	}
	w.statements(namedChildren(body), is)
}

func (w *declarer) block(n *sitter.Node, cur scope.ScopeID) scope.ScopeID {
	ns := w.naming(cur)
	bs := w.open(scope.KindBlock, cur, 0, qname.Block(ns.Name, ns.Next("block")), n)
	w.statements(namedChildren(n), bs)
	return bs
}

func (w *declarer) switchBlock(n *sitter.Node, cur scope.ScopeID) {
	ns := w.naming(cur)
	bs := w.open(scope.KindBlock, cur, 0, qname.Block(ns.Name, ns.Next("block")), n)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "switch_block_statement_group", "switch_rule":
			w.switchCase(c, bs)
		default:
			w.walk(c, bs)
		}
	}
}

// switchCase walks one case of a switch block. The pattern variables of its
// labels live in a clause scope covering the guard and the case body.
func (w *declarer) switchCase(n *sitter.Node, cur scope.ScopeID) {
	var vars []binding
	for _, l := range childrenOfType(n, "switch_label") {
		vars = append(vars, labelBindings(l)...)
	}
	if len(vars) > 0 {
		ns := w.naming(cur)
		cur = w.open(scope.KindClause, cur, 0, qname.Block(ns.Name, ns.Next("block")), n)
		w.bind(vars, cur)
	}
	if n.Type() == "switch_rule" {
		w.children(n, cur)
		return
	}
	w.statements(namedChildren(n), cur)
}

// statements walks a statement list. A statement that rebinds a pattern
// variable already declared at this level opens a pattern clause scope that
// covers it and every later statement of the list.
func (w *declarer) statements(stmts []*sitter.Node, cur scope.ScopeID) {
	var pattern scope.ScopeID
	for _, s := range stmts {
		if isBroken(s) {
			continue
		}
		for _, name := range patternNames(s, w.src) {
			if _, taken := w.a.Local(cur, name, math.MaxUint32); !taken {
				continue
			}
			ns := w.naming(cur)
			p := w.a.NewScope(scope.KindClause, cur, 0, ns.Name, spanOf(s))
			w.base[p] = ns.ID
			cur, pattern = p, p
			break
		}
		if pattern != 0 {
			w.d.scopeAt[keyOf(s)] = pattern
		}
		w.walk(s, cur)
	}
}

// patternNames returns the instanceof binding names introduced directly by
// a statement, not counting nested blocks and closures.
func patternNames(n *sitter.Node, src []byte) []string {
	var out []string
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "block", "lambda_expression", "class_body", "switch_block", "class_declaration":
			return
		case "instanceof_expression":
			for _, b := range patternBindings(n) {
				out = append(out, text(b.name, src))
			}
		}
		for _, c := range namedChildren(n) {
			visit(c)
		}
	}
	visit(n)
	return out
}

// binding is a variable introduced by a type pattern or by a component of
// a record pattern.
type binding struct {
	name *sitter.Node
	typ  *sitter.Node
}

// patternBindings returns the variables a pattern introduces, nested record
// components included, in source order.
func patternBindings(n *sitter.Node) []binding {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "instanceof_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			return []binding{{name: name, typ: n.ChildByFieldName("right")}}
		}
		left := n.ChildByFieldName("left")
		var out []binding
		for _, c := range namedChildren(n) {
			if left == nil || keyOf(c) != keyOf(left) {
				out = append(out, patternBindings(c)...)
			}
		}
		return out
	case "pattern", "record_pattern_body":
		var out []binding
		for _, c := range namedChildren(n) {
			out = append(out, patternBindings(c)...)
		}
		return out
	case "record_pattern":
		return patternBindings(childOfType(n, "record_pattern_body"))
	case "type_pattern", "record_pattern_component":
		kids := namedChildren(n)
		if len(kids) < 2 || kids[len(kids)-1].Type() != "identifier" {
			return nil
		}
		for _, k := range kids[:len(kids)-1] {
			if k.Type() != "modifiers" {
				return []binding{{name: kids[len(kids)-1], typ: k}}
			}
		}
	}
	return nil
}

// labelBindings returns the pattern variables of a switch label.
func labelBindings(label *sitter.Node) []binding {
	var out []binding
	for _, c := range namedChildren(label) {
		switch c.Type() {
		case "pattern", "type_pattern", "record_pattern":
			out = append(out, patternBindings(c)...)
		}
	}
	return out
}

func (w *declarer) local(n *sitter.Node, cur scope.ScopeID) {
	mods, _ := modifiers(n, w.src)
	typ := text(n.ChildByFieldName("type"), w.src)
	for _, decl := range declarators(n) {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		value := decl.ChildByFieldName("value")
		w.walk(value, cur)
		name := text(nameNode, w.src)
		sym := scope.Symbol{
			QualifiedName: w.localName(cur, name),
			Name:          name,
			Kind:          scope.SymVariable,
			Type:          typ + text(decl.ChildByFieldName("dimensions"), w.src),
			Modifiers:     mods,
			Span:          spanOf(decl),
			Offset:        decl.StartByte(),
		}
		id, ok := w.declare(cur, sym, decl)
		if ok && typ == "var" && value != nil {
			w.d.varInit[id] = value
		}
	}
}

func (w *declarer) lambda(n *sitter.Node, cur scope.ScopeID) {
	owner, counter, prefix := w.closureOwner(cur)
	qn := qname.Lambda(owner, counter.Next(prefix+"lambda"))
	sym := scope.Symbol{
		QualifiedName: qn,
		Name:          qname.Simple(qn),
		Kind:          scope.SymLambda,
		Span:          spanOf(n),
		Offset:        n.StartByte(),
	}
	id, ok := w.declare(cur, sym, n)
	if !ok {
		return
	}
	ls := w.open(scope.KindLambda, cur, id, qn, n)

	params := n.ChildByFieldName("parameters")
	switch {
	case params == nil:
	case params.Type() == "identifier":
		w.lambdaParam(params, ls)
	default:
		for _, p := range namedChildren(params) {
			switch p.Type() {
			case "identifier":
				w.lambdaParam(p, ls)
			case "formal_parameter", "spread_parameter":
				w.param(p, ls)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body != nil && body.Type() == "block" {
		w.statements(namedChildren(body), ls)
		return
	}
	w.walk(body, ls)
}

func (w *declarer) lambdaParam(id *sitter.Node, ls scope.ScopeID) {
	name := text(id, w.src)
	w.declare(ls, scope.Symbol{
		QualifiedName: w.localName(ls, name),
		Name:          name,
		Kind:          scope.SymParameter,
		Span:          spanOf(id),
		Offset:        id.StartByte(),
	}, id)
}

func (w *declarer) creation(n *sitter.Node, cur scope.ScopeID) {
	var body *sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "class_body" {
			body = c
			continue
		}
		w.walk(c, cur)
	}
	if body != nil {
		w.anonymous(body, cur, text(n.ChildByFieldName("type"), w.src))
	}
}

func (w *declarer) anonymous(body *sitter.Node, cur scope.ScopeID, super string) {
	owner, counter, prefix := w.closureOwner(cur)
	qn := qname.Anonymous(owner, counter.Next(prefix+"anon"))
	var supers []string
	if super != "" {
		supers = []string{super}
	}
	sym := scope.Symbol{
		QualifiedName: qn,
		Name:          qname.Simple(qn),
		Kind:          scope.SymAnonymous,
		Span:          spanOf(body),
		Offset:        body.StartByte(),
		Supertypes:    supers,
	}
	id, ok := w.declare(cur, sym, body)
	if !ok {
		return
	}
	as := w.open(scope.KindAnonymous, cur, id, qn, body)

	info := index.NewTypeInfo(qn, sym.Name, w.pkg, scope.SymAnonymous)
	info.Local = true
	info.Outer = w.a.Scope(w.a.EnclosingType(cur)).Name
	info.Supertypes = supers
	info.Imports = w.d.imports
	w.types[id] = info
	w.d.exports = append(w.d.exports, info)

	prev := w.fieldOwner
	w.fieldOwner = 0
	w.members(body, as)
	w.fieldOwner = prev
}

// clause handles statements whose header declares variables scoped to the
// statement: for, enhanced for, try-with-resources and catch.
func (w *declarer) clause(n *sitter.Node, cur scope.ScopeID) {
	ns := w.naming(cur)
	cs := w.open(scope.KindClause, cur, 0, qname.Block(ns.Name, ns.Next("block")), n)

	switch n.Type() {
	case "for_statement":
		body := n.ChildByFieldName("body")
		for _, c := range namedChildren(n) {
			if body != nil && keyOf(c) == keyOf(body) {
				continue
			}
			w.walk(c, cs)
		}
		w.clauseBody(body, cs)

	case "enhanced_for_statement":
		w.walk(n.ChildByFieldName("value"), cur)
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			mods, _ := modifiers(n, w.src)
			name := text(nameNode, w.src)
			w.declare(cs, scope.Symbol{
				QualifiedName: w.localName(cs, name),
				Name:          name,
				Kind:          scope.SymVariable,
				Type:          text(n.ChildByFieldName("type"), w.src) + text(n.ChildByFieldName("dimensions"), w.src),
				Modifiers:     mods,
				Span:          spanOf(nameNode),
				Offset:        nameNode.StartByte(),
			}, nameNode)
		}
		w.clauseBody(n.ChildByFieldName("body"), cs)

	case "try_with_resources_statement":
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "resource_specification":
				for _, res := range childrenOfType(c, "resource") {
					w.resource(res, cs)
				}
			case "block":
				w.statements(namedChildren(c), cs)
			default:
				w.walk(c, cur)
			}
		}

	case "catch_clause":
		if p := childOfType(n, "catch_formal_parameter"); p != nil {
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				mods, _ := modifiers(p, w.src)
				name := text(nameNode, w.src)
				w.declare(cs, scope.Symbol{
					QualifiedName: w.localName(cs, name),
					Name:          name,
					Kind:          scope.SymVariable,
					Type:          text(childOfType(p, "catch_type"), w.src),
					Modifiers:     mods,
					Span:          spanOf(p),
					Offset:        p.StartByte(),
				}, p)
			}
		}
		w.clauseBody(n.ChildByFieldName("body"), cs)
	}
}

func (w *declarer) clauseBody(body *sitter.Node, cs scope.ScopeID) {
	if body == nil {
		return
	}
	if body.Type() == "block" {
		w.statements(namedChildren(body), cs)
		return
	}
	w.walk(body, cs)
}

func (w *declarer) resource(n *sitter.Node, cs scope.ScopeID) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		w.children(n, cs)
		return
	}
	value := n.ChildByFieldName("value")
	w.walk(value, cs)
	mods, _ := modifiers(n, w.src)
	name := text(nameNode, w.src)
	typ := text(n.ChildByFieldName("type"), w.src)
	id, ok := w.declare(cs, scope.Symbol{
		QualifiedName: w.localName(cs, name),
		Name:          name,
		Kind:          scope.SymVariable,
		Type:          typ,
		Modifiers:     mods,
		Span:          spanOf(n),
		Offset:        n.StartByte(),
	}, n)
	if ok && typ == "var" && value != nil {
		w.d.varInit[id] = value
	}
}

func (w *declarer) pattern(n *sitter.Node, cur scope.ScopeID) {
	w.walk(n.ChildByFieldName("left"), cur)
	if w.a.Scope(cur).Kind.TypeLike() {
		return
	}
	w.bind(patternBindings(n), cur)
}

func (w *declarer) bind(vars []binding, cur scope.ScopeID) {
	for _, v := range vars {
		name := text(v.name, w.src)
		w.declare(cur, scope.Symbol{
			QualifiedName: w.localName(cur, name),
			Name:          name,
			Kind:          scope.SymVariable,
			Type:          text(v.typ, w.src),
			Span:          spanOf(v.name),
			Offset:        v.name.StartByte(),
		}, v.name)
	}
}

// write counts an assignment to a simple name against the local or
// parameter it denotes.
func (w *declarer) write(target *sitter.Node, cur scope.ScopeID) {
	target = unwrapParens(target)
	if target == nil || target.Type() != "identifier" {
		return
	}
	name := text(target, w.src)
	for id := cur; id != 0; id = w.a.Scope(id).Parent {
		s := w.a.Scope(id)
		if s.Kind.TypeLike() {
			return
		}
		if sid, ok := w.a.Local(id, name, target.StartByte()); ok {
			if sym := w.a.Symbol(sid); sym.Kind.Ordered() {
				sym.Writes++
			}
			return
		}
	}
}
