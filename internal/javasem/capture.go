package javasem

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/scope"
)

// capture emits the CAPTURE edges of a simple-name binding that crossed one
// or more lambda or anonymous class boundaries. Each boundary is the source
// of its own edge; the outermost boundary has depth 1. Edges are emitted once
// per boundary and target.
func (r *resolver) capture(b Binding, f frame, n *sitter.Node) {
	if len(b.Crossed) == 0 {
		return
	}
	attrs := relation.Attrs{
		relation.AstKind: n.Type(),
		relation.RawText: text(n, r.src),
	}
	switch {
	case b.Sym != 0:
		sym := r.a.Symbol(b.Sym)
		attrs[relation.CaptureKind] = relation.CaptureLocal
		if sym.Kind == scope.SymParameter {
			attrs[relation.CaptureKind] = relation.CaptureParameter
		}
		attrs[relation.CaptureIsEffectivelyFinal] = sym.Writes == 0
		if sym.Writes > 0 && !r.reassigned[b.Sym] {
			r.reassigned[b.Sym] = true
			r.diags = append(r.diags, diagAt(n, DiagCapturedReassigned,
				"%s is captured by %s but reassigned", sym.QualifiedName, f.src.QualifiedName))
		}
	case b.Member != nil && b.Member.Static():
		attrs[relation.CaptureKind] = relation.CaptureStaticField
		attrs[relation.CaptureIsStatic] = true
	case b.Member != nil:
		attrs[relation.CaptureKind] = relation.CaptureField
		attrs[relation.CaptureIsImplicitThis] = true
	default:
		return
	}

	for i, boundary := range b.Crossed {
		key := captureKey{boundary: boundary, target: b.Target.QualifiedName}
		if r.captured[key] {
			continue
		}
		r.captured[key] = true
		edge := make(relation.Attrs, len(attrs)+1)
		for k, v := range attrs {
			edge[k] = v
		}
		edge[relation.CaptureDepth] = len(b.Crossed) - i
		b.attrs(edge)
		r.emit(relation.Capture, r.endpoint(r.a.Scope(boundary).Owner), b.Target, edge, n)
	}
}

// ambiguity records one ambiguous_member diagnostic per target.
func (r *resolver) ambiguity(b Binding, n *sitter.Node) {
	if len(b.Ambiguous) == 0 || r.ambiguous[b.Target.QualifiedName] {
		return
	}
	r.ambiguous[b.Target.QualifiedName] = true
	r.diags = append(r.diags, diagAt(n, DiagAmbiguousMember,
		"%s is also inherited from %s", b.Target.QualifiedName, strings.Join(b.Ambiguous, ", ")))
}
