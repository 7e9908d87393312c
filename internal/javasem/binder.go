package javasem

import (
	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// Binding is the result of resolving a name: the target plus how it was
// found.
type Binding struct {
	Target relation.Endpoint
	// How is one of the relation.Bind* classifications.
	How string
	// Sym is set for locals and parameters of the current unit.
	Sym scope.SymbolID
	// Member is set for fields, constants and methods of indexed types.
	Member *index.Member
	// Crossed lists the lambda, anonymous class and local class scopes
	// between the reference and the declaration, innermost first.
	Crossed    []scope.ScopeID
	Inherited  bool
	Denied     bool
	External   bool
	Unresolved bool
	Ambiguous  []string
}

// Found reports whether the binding names a declared entity.
func (b Binding) Found() bool { return b.Sym != 0 || b.Member != nil }

func (b Binding) attrs(a relation.Attrs) relation.Attrs {
	a[relation.Binding] = b.How
	if b.External {
		a[relation.External] = true
	}
	if b.Unresolved {
		a[relation.Unresolved] = true
	}
	if b.Denied {
		a[relation.VisibilityDenied] = true
	}
	return a
}

func unresolved(name string) Binding {
	return Binding{
		Target:     relation.Endpoint{QualifiedName: name, Kind: string(scope.SymUnknown)},
		How:        relation.BindUnresolved,
		Unresolved: true,
	}
}

func externalMember(owner, name string, kind scope.SymbolKind) Binding {
	qn := name
	if owner != "" {
		qn = owner + "." + name
	}
	return Binding{
		Target:   relation.Endpoint{QualifiedName: qn, Kind: string(kind)},
		How:      relation.BindExternal,
		External: true,
	}
}

// closes reports whether leaving s outward leaves a closure: a lambda, an
// anonymous class or a class declared inside a code block.
func (r *resolver) closes(s *scope.Scope) bool {
	if s.Kind.Boundary() {
		return true
	}
	if s.Kind != scope.KindType || s.Parent == 0 {
		return false
	}
	p := r.a.Scope(s.Parent).Kind
	return p != scope.KindUnit && !p.TypeLike()
}

// enclosingType returns the innermost class body around cur.
func (r *resolver) enclosingType(cur scope.ScopeID) string {
	if id := r.a.EnclosingType(cur); id != 0 {
		return r.a.Scope(id).Name
	}
	return ""
}

func (r *resolver) memberBinding(hit memberHit, from string) Binding {
	m := hit.m
	b := Binding{
		Target:    relation.Endpoint{QualifiedName: m.QualifiedName, Kind: string(m.Kind)},
		How:       relation.BindField,
		Member:    m,
		Inherited: hit.inherited,
		Ambiguous: hit.ambiguous,
	}
	switch {
	case hit.inherited:
		b.How = relation.BindInherited
	case m.Static():
		b.How = relation.BindStatic
	}
	if !r.accessible(m, from) {
		b.Denied = true
		b.How = relation.BindDenied
	}
	return b
}

// resolveName binds a simple name in value position. Scopes are searched
// innermost first: locals and parameters by declaration order, then at each
// class body the fields of that class and its supertypes, then static
// imports. Leaving a static scope makes outer instance members
// inaccessible.
func (r *resolver) resolveName(cur scope.ScopeID, name string, at uint32) Binding {
	from := r.enclosingType(cur)
	var crossed []scope.ScopeID
	staticCtx := false
	for id := cur; id != 0; id = r.a.Scope(id).Parent {
		s := r.a.Scope(id)
		if s.Kind.TypeLike() {
			if hit := r.findField(s.Name, name); hit.m != nil {
				b := r.memberBinding(hit, from)
				b.Crossed = crossed
				if staticCtx && !hit.m.Static() {
					b.Denied = true
					b.How = relation.BindDenied
				}
				return b
			}
		} else if sid, ok := r.a.Local(id, name, at); ok {
			sym := r.a.Symbol(sid)
			b := Binding{
				Target:  relation.Endpoint{QualifiedName: sym.QualifiedName, Kind: string(sym.Kind)},
				How:     relation.BindLocal,
				Sym:     sid,
				Crossed: crossed,
			}
			switch {
			case len(crossed) > 0:
				b.How = relation.BindCapture
			case sym.Kind == scope.SymParameter:
				b.How = relation.BindParameter
			}
			return b
		}
		if r.closes(s) {
			crossed = append(crossed, id)
		}
		if s.Static {
			staticCtx = true
		}
	}

	if owner, ok := r.d.imports.StaticSingle[name]; ok {
		if hit := r.findField(owner, name); hit.m != nil {
			b := r.memberBinding(hit, from)
			if !b.Denied {
				b.How = relation.BindStaticImport
			}
			return b
		}
		b := externalMember(r.importedOwner(owner), name, scope.SymField)
		b.How = relation.BindStaticImport
		return b
	}
	for _, owner := range r.d.imports.StaticOnDemand {
		if hit := r.findField(owner, name); hit.m != nil && hit.m.Static() {
			b := r.memberBinding(hit, from)
			if !b.Denied {
				b.How = relation.BindStaticImport
			}
			return b
		}
	}
	return unresolved(name)
}

// selfReceiver adjusts a member binding reached through this or super. A
// super member is inherited; in a static context neither receiver exists,
// so instance members are denied.
func (r *resolver) selfReceiver(b Binding, recv receiver, cur scope.ScopeID) Binding {
	switch recv.kind {
	case "super":
		b.Inherited = true
		if b.Member != nil && !b.Denied {
			b.How = relation.BindInherited
		}
	case "this":
	default:
		return b
	}
	if r.staticContext(cur) && b.Member != nil && !b.Member.Static() {
		b.Denied = true
		b.How = relation.BindDenied
	}
	return b
}

// staticContext reports whether code in cur has no enclosing instance of
// its innermost class.
func (r *resolver) staticContext(cur scope.ScopeID) bool {
	for id := cur; id != 0; id = r.a.Scope(id).Parent {
		s := r.a.Scope(id)
		if s.Kind.TypeLike() {
			return false
		}
		if s.Static {
			return true
		}
	}
	return false
}

// importedOwner resolves the type named in a static import.
func (r *resolver) importedOwner(owner string) string {
	if _, ok := r.ix.Type(owner); ok {
		return owner
	}
	return r.qualified(owner).QN
}

// resolveCall binds an unqualified method call the same way resolveName
// binds a field: the innermost class whose hierarchy declares the name
// wins.
func (r *resolver) resolveCall(cur scope.ScopeID, name string, argc int) Binding {
	from := r.enclosingType(cur)
	staticCtx := false
	ext := ""
	for id := cur; id != 0; id = r.a.Scope(id).Parent {
		s := r.a.Scope(id)
		if s.Kind.TypeLike() {
			hit := r.findMethod(s.Name, name, argc)
			if hit.m != nil {
				b := r.memberBinding(hit, from)
				if staticCtx && !hit.m.Static() {
					b.Denied = true
					b.How = relation.BindDenied
				}
				return b
			}
			if ext == "" {
				ext = hit.external
			}
		}
		if s.Static {
			staticCtx = true
		}
	}

	if owner, ok := r.d.imports.StaticSingle[name]; ok {
		if hit := r.findMethod(owner, name, argc); hit.m != nil {
			b := r.memberBinding(hit, from)
			if !b.Denied {
				b.How = relation.BindStaticImport
			}
			return b
		}
		b := externalMember(r.importedOwner(owner), name, scope.SymMethod)
		b.How = relation.BindStaticImport
		return b
	}
	for _, owner := range r.d.imports.StaticOnDemand {
		if hit := r.findMethod(owner, name, argc); hit.m != nil && hit.m.Static() {
			b := r.memberBinding(hit, from)
			if !b.Denied {
				b.How = relation.BindStaticImport
			}
			return b
		}
	}
	if ext != "" {
		b := externalMember(ext, name, scope.SymMethod)
		b.Inherited = true
		return b
	}
	if objectMethods[name] {
		b := externalMember("java.lang.Object", name, scope.SymMethod)
		b.Inherited = true
		return b
	}
	return unresolved(name)
}

// resolveMember binds name as a field (call false) or method (call true) of
// an explicit receiver type.
func (r *resolver) resolveMember(cur scope.ScopeID, recv TypeRef, name string, call bool, argc int) Binding {
	kind := scope.SymField
	if call {
		kind = scope.SymMethod
	}
	switch {
	case !recv.Known():
		b := unresolved(name)
		b.Target.Kind = string(kind)
		return b
	case recv.TypeParam():
		return externalMember("", name, kind)
	case recv.Dims > 0 && call:
		return externalMember("java.lang.Object", name, kind)
	case recv.Dims > 0:
		return externalMember(recv.QN+"[]", name, kind)
	}
	if recv.External {
		return externalMember(recv.QN, name, kind)
	}

	var hit memberHit
	if call {
		hit = r.findMethod(recv.QN, name, argc)
	} else {
		hit = r.findField(recv.QN, name)
	}
	if hit.m != nil {
		return r.memberBinding(hit, r.enclosingType(cur))
	}
	if hit.external != "" {
		b := externalMember(hit.external, name, kind)
		b.Inherited = true
		return b
	}
	if call && objectMethods[name] {
		b := externalMember("java.lang.Object", name, kind)
		b.Inherited = true
		return b
	}
	b := unresolved(recv.QN + "." + name)
	b.Target.Kind = string(kind)
	return b
}
