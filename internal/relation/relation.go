// Package relation defines the typed edges produced by the extractor and
// their serialized form.
package relation

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of relation kinds.
type Kind uint8

const (
	Call Kind = iota + 1
	Use
	Assign
	Cast
	Throw
	Return
	Parameter
	TypeArg
	Capture
	Create
	Extend
	Implement
	Annotation
)

// Kinds returns every relation kind in declaration order.
func Kinds() []Kind {
	return []Kind{Call, Use, Assign, Cast, Throw, Return, Parameter, TypeArg,
		Capture, Create, Extend, Implement, Annotation}
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Call:
		return "CALL"
	case Use:
		return "USE"
	case Assign:
		return "ASSIGN"
	case Cast:
		return "CAST"
	case Throw:
		return "THROW"
	case Return:
		return "RETURN"
	case Parameter:
		return "PARAMETER"
	case TypeArg:
		return "TYPE_ARG"
	case Capture:
		return "CAPTURE"
	case Create:
		return "CREATE"
	case Extend:
		return "EXTEND"
	case Implement:
		return "IMPLEMENT"
	case Annotation:
		return "ANNOTATION"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a wire name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.String() == up {
			return k, nil
		}
	}
	return 0, fmt.Errorf("relation: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < Call || k > Annotation {
		return nil, fmt.Errorf("relation: invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Endpoint is one side of a relation.
type Endpoint struct {
	QualifiedName string
	Kind          string
}

// Span locates the syntax that produced a relation. Lines and columns are
// 0-based.
type Span struct {
	Line int
	Col  int
}

// Attrs is the flat attribute map of a relation. Values are strings, ints or
// bools.
type Attrs map[string]any

// Keys returns the attribute keys, sorted.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bool returns the attribute as a bool; missing or non-bool values are false.
func (a Attrs) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// String returns the attribute as a string; missing values are "".
func (a Attrs) String(key string) string {
	switch v := a[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the attribute as an int and whether it was present.
func (a Attrs) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Relation is an edge between two entities. Relations are never mutated
// after emission.
type Relation struct {
	Source Endpoint
	Target Endpoint
	Kind   Kind
	Attrs  Attrs
	Span   Span
}

// Record is the serialized form of a Relation.
type Record struct {
	SourceQualifiedName string `json:"sourceQualifiedName"`
	SourceKind          string `json:"sourceKind"`
	TargetQualifiedName string `json:"targetQualifiedName"`
	TargetKind          string `json:"targetKind"`
	RelationKind        string `json:"relationKind"`
	Attributes          Attrs  `json:"attributes"`
}

// Record returns the serialized form of r.
func (r Relation) Record() Record {
	attrs := r.Attrs
	if attrs == nil {
		attrs = Attrs{}
	}
	return Record{
		SourceQualifiedName: r.Source.QualifiedName,
		SourceKind:          r.Source.Kind,
		TargetQualifiedName: r.Target.QualifiedName,
		TargetKind:          r.Target.Kind,
		RelationKind:        r.Kind.String(),
		Attributes:          attrs,
	}
}

// String renders the relation as "source -KIND-> target" for logs and test
// failures.
func (r Relation) String() string {
	return fmt.Sprintf("%s -%s-> %s", r.Source.QualifiedName, r.Kind, r.Target.QualifiedName)
}

// Filter returns the relations for which keep reports true.
func Filter(rels []Relation, keep func(Relation) bool) []Relation {
	var out []Relation
	for _, r := range rels {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// OfKind returns the relations of kind k.
func OfKind(rels []Relation, k Kind) []Relation {
	return Filter(rels, func(r Relation) bool { return r.Kind == k })
}
