package javasem

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/index"
)

// DiagKind classifies a diagnostic.
type DiagKind string

const (
	DiagSkippedNode        DiagKind = "skipped_node"
	DiagDuplicate          DiagKind = "duplicate_declaration"
	DiagDuplicateType      DiagKind = "duplicate_type"
	DiagAmbiguousMember    DiagKind = "ambiguous_member"
	DiagCapturedReassigned DiagKind = "captured_reassigned"
	DiagParseError         DiagKind = "parse_error"
	DiagInternal           DiagKind = "internal_error"
)

// Partial reports whether a diagnostic of this kind degrades the unit's
// status to partial.
func (k DiagKind) Partial() bool {
	return k == DiagSkippedNode || k == DiagParseError
}

// Diagnostic is a non-fatal problem found while processing a unit. Lines
// and columns are 0-based.
type Diagnostic struct {
	Kind    DiagKind `json:"kind"`
	Message string   `json:"message"`
	Line    int      `json:"line"`
	Col     int      `json:"col"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line+1, d.Col+1, d.Kind, d.Message)
}

func diagAt(n *sitter.Node, kind DiagKind, format string, args ...any) Diagnostic {
	p := n.StartPoint()
	return Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    int(p.Row),
		Col:     int(p.Column),
	}
}

func duplicateTypeDiags(err error) []Diagnostic {
	var out []Diagnostic
	var joined interface{ Unwrap() []error }
	errs := []error{err}
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var dup *index.DuplicateTypeError
		if errors.As(e, &dup) {
			out = append(out, Diagnostic{
				Kind:    DiagDuplicateType,
				Message: fmt.Sprintf("type %s already declared in %s", dup.QualifiedName, dup.First),
			})
			continue
		}
		out = append(out, Diagnostic{Kind: DiagInternal, Message: e.Error()})
	}
	return out
}
