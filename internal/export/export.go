// Package export writes relation sets in the supported output formats.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/understory/internal/relation"
)

// Format names an output format.
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatMermaid Format = "mermaid"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatJSONL, FormatJSON, FormatText, FormatMermaid}

// ErrUnknownFormat is returned for a format name not in Formats.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat validates a format name. The empty string is FormatJSONL.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatJSONL, nil
	}
	for _, f := range Formats {
		if Format(s) == f {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrUnknownFormat, s, strings.Join(names, ", "))
}

// Write renders rels to w in format f.
func Write(w io.Writer, f Format, rels []relation.Relation) error {
	switch f {
	case FormatJSONL, "":
		return WriteJSONL(w, rels)
	case FormatJSON:
		return WriteJSON(w, rels)
	case FormatText:
		return WriteText(w, rels)
	case FormatMermaid:
		return WriteMermaid(w, rels)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// JSONLWriter encodes one value per line.
type JSONLWriter struct {
	enc *json.Encoder
}

// NewJSONLWriter returns a writer that appends lines to w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// Write encodes v followed by a newline.
func (w *JSONLWriter) Write(v any) error { return w.enc.Encode(v) }

// WriteJSONL writes one relation record per line.
func WriteJSONL(w io.Writer, rels []relation.Relation) error {
	jw := NewJSONLWriter(w)
	for _, rel := range rels {
		if err := jw.Write(rel.Record()); err != nil {
			return fmt.Errorf("export: writing jsonl: %w", err)
		}
	}
	return nil
}

// WriteJSON writes the records as one indented JSON array.
func WriteJSON(w io.Writer, rels []relation.Relation) error {
	records := make([]relation.Record, len(rels))
	for i, rel := range rels {
		records[i] = rel.Record()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export: writing json: %w", err)
	}
	return nil
}

// WriteText writes aligned columns, one relation per row.
func WriteText(w io.Writer, rels []relation.Relation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tKIND\tTARGET\tTARGET KIND\tLINE")
	for _, rel := range rels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			rel.Source.QualifiedName, rel.Kind, rel.Target.QualifiedName, rel.Target.Kind, rel.Span.Line+1)
	}
	return tw.Flush()
}
