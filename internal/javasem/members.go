package javasem

import (
	"slices"
	"strings"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/qname"
	"github.com/jward/understory/internal/scope"
)

// objectMethods are the methods every type inherits from java.lang.Object.
var objectMethods = map[string]bool{
	"toString": true, "equals": true, "hashCode": true, "getClass": true,
	"clone": true, "finalize": true, "notify": true, "notifyAll": true, "wait": true,
}

// memberHit is the outcome of a member lookup rooted at one type.
type memberHit struct {
	m         *index.Member
	inherited bool
	ambiguous []string
	// external is the nearest supertype outside the index, used when the
	// member is not found in indexed types.
	external string
}

// hierarchy visits typeQN and its supertypes breadth first: the type
// itself, then direct supertypes (superclass before interfaces), and so on.
// visit returns true to stop descending below that type.
func (r *resolver) hierarchy(typeQN string, visit func(ti *index.TypeInfo, depth int) bool) (external string) {
	seen := map[string]bool{typeQN: true}
	level := []string{typeQN}
	for depth := 0; len(level) > 0; depth++ {
		var next []string
		for _, t := range level {
			ti, ok := r.ix.Type(t)
			if !ok {
				if depth > 0 && external == "" {
					external = t
				}
				continue
			}
			if visit(ti, depth) {
				continue
			}
			for _, s := range r.supers(t) {
				if !s.Known() || s.TypeParam() || seen[s.QN] {
					continue
				}
				seen[s.QN] = true
				next = append(next, s.QN)
			}
		}
		level = next
	}
	return external
}

// findField looks up a field or enum constant. The closest declaration wins;
// two declarations at the same distance are ambiguous and the first in
// supertype order is used.
func (r *resolver) findField(typeQN, name string) memberHit {
	var hit memberHit
	found := -1
	hit.external = r.hierarchy(typeQN, func(ti *index.TypeInfo, depth int) bool {
		if found >= 0 && depth > found {
			return true
		}
		m, ok := ti.Fields[name]
		if !ok {
			return false
		}
		if hit.m == nil {
			hit.m, hit.inherited, found = m, depth > 0, depth
		} else if m.Owner != hit.m.Owner {
			hit.ambiguous = append(hit.ambiguous, m.Owner)
		}
		return true
	})
	return hit
}

type candidate struct {
	m     *index.Member
	depth int
}

// findMethod picks a method by name and argument count across the type's
// hierarchy. Overridden methods are hidden by the closest declaration. An
// exact arity match wins over a varargs match, which wins over a name-only
// match; ties go to the closest type, then declaration order. argc < 0
// matches any arity.
func (r *resolver) findMethod(typeQN, name string, argc int) memberHit {
	var cands []candidate
	sigs := map[string]int{}
	ext := r.hierarchy(typeQN, func(ti *index.TypeInfo, depth int) bool {
		for _, m := range ti.Methods[name] {
			if m.Kind != scope.SymMethod {
				continue
			}
			sig := qname.Simple(m.QualifiedName)
			if d, ok := sigs[sig]; ok && d < depth {
				continue
			}
			sigs[sig] = depth
			cands = append(cands, candidate{m: m, depth: depth})
		}
		return false
	})
	hit := pick(cands, argc)
	hit.external = ext
	return hit
}

// findCtor picks a constructor of typeQN by argument count.
func (r *resolver) findCtor(typeQN string, argc int) memberHit {
	ti, ok := r.ix.Type(typeQN)
	if !ok {
		return memberHit{}
	}
	var cands []candidate
	for _, m := range ti.Methods[ti.Name] {
		if m.Kind == scope.SymConstructor {
			cands = append(cands, candidate{m: m})
		}
	}
	return pick(cands, argc)
}

func pick(cands []candidate, argc int) memberHit {
	if len(cands) == 0 {
		return memberHit{}
	}
	matchers := []func(*index.Member) bool{
		func(m *index.Member) bool { return argc < 0 || (!m.Varargs && len(m.Params) == argc) },
		func(m *index.Member) bool { return m.Varargs && argc >= len(m.Params)-1 },
		func(*index.Member) bool { return true },
	}
	for _, match := range matchers {
		var best *candidate
		var ambiguous []string
		for i := range cands {
			c := &cands[i]
			if !match(c.m) {
				continue
			}
			switch {
			case best == nil:
				best = c
			case c.depth == best.depth && c.m.Owner != best.m.Owner &&
				slices.Equal(erased(c.m.Params), erased(best.m.Params)):
				ambiguous = append(ambiguous, c.m.Owner)
			}
		}
		if best != nil {
			return memberHit{m: best.m, inherited: best.depth > 0, ambiguous: ambiguous}
		}
	}
	return memberHit{}
}

func erased(params []string) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = qname.Erase(p)
	}
	return out
}

// accessible reports whether member m may be referenced from code in type
// from.
func (r *resolver) accessible(m *index.Member, from string) bool {
	if from == "" {
		return true
	}
	switch m.Visibility() {
	case "public":
		return true
	case "private":
		return r.topLevel(m.Owner) == r.topLevel(from)
	case "protected":
		if r.packageOf(m.Owner) == r.packageOf(from) {
			return true
		}
		for t := from; t != ""; t = r.outerOf(t) {
			if r.isSubtype(t, m.Owner) {
				return true
			}
		}
		return false
	}
	return r.packageOf(m.Owner) == r.packageOf(from)
}

func (r *resolver) topLevel(qn string) string {
	if ti, ok := r.ix.Type(qn); ok {
		return ti.TopLevel(r.ix)
	}
	return qn
}

func (r *resolver) outerOf(qn string) string {
	if ti, ok := r.ix.Type(qn); ok {
		return ti.Outer
	}
	return ""
}

func (r *resolver) packageOf(qn string) string {
	if ti, ok := r.ix.Type(qn); ok {
		return ti.Package
	}
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[:i]
	}
	return ""
}
