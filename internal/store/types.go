package store

import (
	"time"

	"github.com/jward/understory/internal/relation"
)

// Run is one analysis of a source tree.
type Run struct {
	ID            string
	Root          string
	Noise         string
	RulesHash     string
	StartedAt     time.Time
	FinishedAt    *time.Time
	UnitCount     int
	RelationCount int
}

// Unit is one compilation unit analyzed in a run.
type Unit struct {
	ID        int64
	RunID     string
	Path      string
	Package   string
	Hash      string
	Status    string
	LineCount int
}

// Symbol is a declared entity of a unit.
type Symbol struct {
	ID            int64
	RunID         string
	UnitID        int64
	QualifiedName string
	Name          string
	Kind          string
	Type          string
	Modifiers     []string
	Implicit      bool
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// Relation is a stored relation. Attrs round-trip through JSON; integer
// attributes come back as int.
type Relation struct {
	ID         int64
	RunID      string
	UnitID     int64
	Kind       string
	SourceQN   string
	SourceKind string
	TargetQN   string
	TargetKind string
	Attrs      relation.Attrs
	Line       int
	Col        int
}

// Diagnostic is a stored per-unit diagnostic.
type Diagnostic struct {
	ID      int64
	RunID   string
	UnitID  int64
	Kind    string
	Message string
	Line    int
	Col     int
}

// FromRelation converts an emitted relation for storage.
func FromRelation(rel relation.Relation) *Relation {
	return &Relation{
		Kind:       rel.Kind.String(),
		SourceQN:   rel.Source.QualifiedName,
		SourceKind: rel.Source.Kind,
		TargetQN:   rel.Target.QualifiedName,
		TargetKind: rel.Target.Kind,
		Attrs:      rel.Attrs,
		Line:       rel.Span.Line,
		Col:        rel.Span.Col,
	}
}

// Relation converts a stored relation back to the emitted form. An unknown
// kind string yields the zero Kind.
func (r *Relation) Relation() relation.Relation {
	kind, _ := relation.ParseKind(r.Kind)
	attrs := r.Attrs
	if attrs == nil {
		attrs = relation.Attrs{}
	}
	return relation.Relation{
		Source: relation.Endpoint{QualifiedName: r.SourceQN, Kind: r.SourceKind},
		Target: relation.Endpoint{QualifiedName: r.TargetQN, Kind: r.TargetKind},
		Kind:   kind,
		Attrs:  attrs,
		Span:   relation.Span{Line: r.Line, Col: r.Col},
	}
}
