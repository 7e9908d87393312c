package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatRelationsText formats CLIRelation results as aligned columns.
func formatRelationsText(w io.Writer, rels []CLIRelation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tKIND\tTARGET\tFILE\tLINE\tCOL")
	for _, r := range rels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", r.Source, r.Kind, r.Target, r.File, r.Line, r.Col)
	}
	tw.Flush()
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUALIFIED NAME\tKIND\tFILE\tLINE\tFAN-IN")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.QualifiedName, s.Kind, s.File, s.StartLine, s.FanIn)
	}
	tw.Flush()
}

// formatUnitsText formats CLIUnit results as aligned columns.
func formatUnitsText(w io.Writer, units []CLIUnit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tPACKAGE\tSTATUS\tLINES")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", u.Path, u.Package, u.Status, u.LineCount)
	}
	tw.Flush()
}

// formatDiagnosticsText formats diagnostics as "line:col kind: message".
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%d:%d %s: %s\n", d.Line, d.Col, d.Kind, d.Message)
	}
}

// formatRunsText formats CLIRun results as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tNOISE\tUNITS\tRELATIONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Noise, r.UnitCount, r.RelationCount)
	}
	tw.Flush()
}

// formatCallGraphText prints one node per line, indented by depth, then
// the edges.
func formatCallGraphText(w io.Writer, g CLICallGraph) {
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Depth), n.QualifiedName)
	}
	if len(g.Edges) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CALLER\tCALLEE\tFILE\tLINE")
	for _, e := range g.Edges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Caller, e.Callee, e.File, e.Line)
	}
	tw.Flush()
}

// formatHotspotsText formats CLIHotspot results as aligned columns.
func formatHotspotsText(w io.Writer, hot []CLIHotspot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUALIFIED NAME\tKIND\tFAN-IN\tCALLERS\tCALLEES")
	for _, h := range hot {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n",
			h.Symbol.QualifiedName, h.Symbol.Kind, h.Symbol.FanIn, h.CallerCount, h.CalleeCount)
	}
	tw.Flush()
}

// formatPackageGraphText lists packages, then dependency edges.
func formatPackageGraphText(w io.Writer, g CLIPackageGraph) {
	fmt.Fprintln(w, "Packages:")
	for _, p := range g.Packages {
		fmt.Fprintf(w, "  %s: %d units, %d lines\n", p.Name, p.UnitCount, p.LineCount)
	}
	if len(g.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dependencies:")
		for _, e := range g.Edges {
			fmt.Fprintf(w, "  %s -> %s (%d)\n", e.From, e.To, e.RelationCount)
		}
	}
}

// formatTypeRelationsText formats hierarchy entries as aligned columns.
func formatTypeRelationsText(w io.Writer, rels []CLITypeRelation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUALIFIED NAME\tVIA\tKIND\tFILE\tDEPTH")
	for _, t := range rels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", t.QualifiedName, t.Kind, t.SymbolKind, t.File, t.Depth)
	}
	tw.Flush()
}

// formatHierarchyText formats a CLITypeHierarchy as readable text.
func formatHierarchyText(w io.Writer, h CLITypeHierarchy) {
	fmt.Fprintf(w, "Type: %s\n", h.QualifiedName)
	if len(h.Supertypes) > 0 {
		fmt.Fprintln(w, "\nSupertypes:")
		formatTypeRelationsText(w, h.Supertypes)
	}
	if len(h.Subtypes) > 0 {
		fmt.Fprintln(w, "\nSubtypes:")
		formatTypeRelationsText(w, h.Subtypes)
	}
}

// formatDetailText formats a CLISymbolDetail as readable text.
func formatDetailText(w io.Writer, d CLISymbolDetail) {
	fmt.Fprintf(w, "Symbol: %s (%s)\n", d.Symbol.QualifiedName, d.Symbol.Kind)
	fmt.Fprintf(w, "File: %s:%d\n", d.Symbol.File, d.Symbol.StartLine)
	for _, group := range []struct {
		title string
		rels  []CLIRelation
	}{
		{"Parameters", d.Parameters},
		{"Returns", d.Returns},
		{"Throws", d.Throws},
		{"Annotations", d.Annotations},
	} {
		if len(group.rels) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", group.title)
		for _, r := range group.rels {
			fmt.Fprintf(w, "  %s\n", r.Target)
		}
	}
	if len(d.Members) > 0 {
		fmt.Fprintln(w, "Members:")
		for _, m := range d.Members {
			fmt.Fprintf(w, "  %s (%s)\n", m.QualifiedName, m.Kind)
		}
	}
	writeCounts(w, "Outgoing", d.Outgoing)
	writeCounts(w, "Incoming", d.Incoming)
}

func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	return writeResultText(os.Stdout, result)
}

func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIRelation:
		formatRelationsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIUnit:
		formatUnitsText(w, v)
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case []CLIRun:
		formatRunsText(w, v)
	case CLICallGraph:
		formatCallGraphText(w, v)
	case []CLIHotspot:
		formatHotspotsText(w, v)
	case CLIPackageGraph:
		formatPackageGraphText(w, v)
	case CLITypeHierarchy:
		formatHierarchyText(w, v)
	case []CLITypeRelation:
		formatTypeRelationsText(w, v)
	case CLISymbolDetail:
		formatDetailText(w, v)
	case [][]string:
		for _, cycle := range v {
			fmt.Fprintln(w, strings.Join(cycle, " -> "))
		}
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIRelation:
		return len(r)
	case []CLISymbol:
		return len(r)
	case []CLIUnit:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format on query commands.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized. The
// empty string selects json.
func validateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
