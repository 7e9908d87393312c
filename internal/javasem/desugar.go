package javasem

import (
	"github.com/jward/understory/internal/qname"
	"github.com/jward/understory/internal/scope"
)

// desugar adds the members Java declares implicitly: a default constructor
// for classes without one, values/valueOf for enums, and the canonical
// constructor and accessors for records.
func (w *declarer) desugar(typeID scope.SymbolID, ts scope.ScopeID) {
	t := *w.a.Symbol(typeID)
	qn, name := t.QualifiedName, t.Name
	vis := visibilityOf(t.Modifiers)

	switch t.Kind {
	case scope.SymClass:
		if len(w.a.Methods(ts, name)) == 0 {
			w.implicit(ts, scope.Symbol{Name: name, Kind: scope.SymConstructor, Modifiers: vis}, &t)
		}

	case scope.SymEnum:
		w.implicit(ts, scope.Symbol{
			Name:      "values",
			Kind:      scope.SymMethod,
			Type:      name + "[]",
			Modifiers: []string{"public", "static"},
		}, &t)
		w.implicit(ts, scope.Symbol{
			Name:      "valueOf",
			Kind:      scope.SymMethod,
			Type:      name,
			Modifiers: []string{"public", "static"},
			Params:    []string{"String"},
		}, &t)

	case scope.SymRecord:
		for _, fid := range w.a.Scope(ts).Symbols() {
			f := w.a.Symbol(fid)
			if f.Kind != scope.SymField || f.Static() {
				continue
			}
			if _, ok := w.a.ByQualifiedName(qname.Method(qn, f.Name, nil)); ok {
				continue
			}
			w.implicit(ts, scope.Symbol{Name: f.Name, Kind: scope.SymMethod, Type: f.Type, Modifiers: []string{"public"}}, &t)
		}
		if _, ok := w.a.ByQualifiedName(qname.Method(qn, name, t.Params)); !ok {
			w.implicit(ts, scope.Symbol{Name: name, Kind: scope.SymConstructor, Params: t.Params, Modifiers: vis}, &t)
		}
	}
}

func (w *declarer) implicit(ts scope.ScopeID, sym scope.Symbol, owner *scope.Symbol) {
	sym.QualifiedName = qname.Method(owner.QualifiedName, sym.Name, sym.Params)
	if _, ok := w.a.ByQualifiedName(sym.QualifiedName); ok {
		return
	}
	sym.Implicit = true
	sym.Modifiers = withModifier(sym.Modifiers, "implicit")
	sym.Span = owner.Span
	sym.Offset = owner.Offset
	id, err := w.a.Declare(ts, sym)
	if err != nil {
		return
	}
	w.exportMember(ts, id)
}

func visibilityOf(mods []string) []string {
	for _, m := range mods {
		switch m {
		case "public", "protected", "private":
			return []string{m}
		}
	}
	return nil
}
