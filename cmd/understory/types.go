package main

import (
	"time"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/relation"
)

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRelation is a JSON-friendly stored relation.
type CLIRelation struct {
	Kind       string         `json:"kind"`
	Source     string         `json:"source"`
	SourceKind string         `json:"source_kind"`
	Target     string         `json:"target"`
	TargetKind string         `json:"target_kind"`
	File       string         `json:"file,omitempty"`
	Line       int            `json:"line"`
	Col        int            `json:"col"`
	Attrs      relation.Attrs `json:"attrs,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	QualifiedName string   `json:"qualified_name"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Type          string   `json:"type,omitempty"`
	Modifiers     []string `json:"modifiers,omitempty"`
	Implicit      bool     `json:"implicit,omitempty"`
	File          string   `json:"file,omitempty"`
	StartLine     int      `json:"start_line"`
	StartCol      int      `json:"start_col"`
	EndLine       int      `json:"end_line"`
	EndCol        int      `json:"end_col"`
	FanIn         int      `json:"fan_in"`
}

// CLIUnit is a JSON-friendly compilation unit.
type CLIUnit struct {
	Path      string `json:"path"`
	Package   string `json:"package,omitempty"`
	Status    string `json:"status"`
	LineCount int    `json:"line_count"`
	Hash      string `json:"hash"`
}

// CLIDiagnostic is a JSON-friendly unit diagnostic.
type CLIDiagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
}

// CLIRun is a JSON-friendly stored run.
type CLIRun struct {
	ID            string     `json:"id"`
	Root          string     `json:"root"`
	Noise         string     `json:"noise"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	UnitCount     int        `json:"unit_count"`
	RelationCount int        `json:"relation_count"`
}

// CLICallGraph is the JSON form of a transitive call graph.
type CLICallGraph struct {
	Root  string             `json:"root"`
	Nodes []CLICallGraphNode `json:"nodes"`
	Edges []CLICallGraphEdge `json:"edges"`
	Depth int                `json:"depth"`
}

// CLICallGraphNode is a method in a call graph.
type CLICallGraphNode struct {
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	File          string `json:"file,omitempty"`
	Depth         int    `json:"depth"`
}

// CLICallGraphEdge is a single caller-callee edge.
type CLICallGraphEdge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
}

// CLIHotspot is a symbol with its fan-in and call counts.
type CLIHotspot struct {
	Symbol      CLISymbol `json:"symbol"`
	CallerCount int       `json:"caller_count"`
	CalleeCount int       `json:"callee_count"`
}

// CLIPackageGraph is the package dependency graph.
type CLIPackageGraph struct {
	Packages []CLIPackageNode `json:"packages"`
	Edges    []CLIPackageEdge `json:"edges"`
}

// CLIPackageNode is a package with its size.
type CLIPackageNode struct {
	Name      string `json:"name"`
	UnitCount int    `json:"unit_count"`
	LineCount int    `json:"line_count"`
}

// CLIPackageEdge is a dependency between two packages.
type CLIPackageEdge struct {
	From          string `json:"from"`
	To            string `json:"to"`
	RelationCount int    `json:"relation_count"`
}

// CLITypeRelation is a supertype or subtype in a hierarchy.
type CLITypeRelation struct {
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	SymbolKind    string `json:"symbol_kind"`
	File          string `json:"file,omitempty"`
	Depth         int    `json:"depth"`
}

// CLITypeHierarchy is the inheritance view of a type.
type CLITypeHierarchy struct {
	QualifiedName string            `json:"qualified_name"`
	Symbol        *CLISymbol        `json:"symbol,omitempty"`
	Supertypes    []CLITypeRelation `json:"supertypes"`
	Subtypes      []CLITypeRelation `json:"subtypes"`
}

// CLISymbolDetail is the detail view of a symbol.
type CLISymbolDetail struct {
	Symbol      CLISymbol      `json:"symbol"`
	Parameters  []CLIRelation  `json:"parameters"`
	Returns     []CLIRelation  `json:"returns"`
	Throws      []CLIRelation  `json:"throws"`
	Annotations []CLIRelation  `json:"annotations"`
	Members     []CLISymbol    `json:"members"`
	Outgoing    map[string]int `json:"outgoing"`
	Incoming    map[string]int `json:"incoming"`
}

func relationToCLI(r understory.RelationResult) CLIRelation {
	return CLIRelation{
		Kind:       r.Kind.String(),
		Source:     r.Source.QualifiedName,
		SourceKind: r.Source.Kind,
		Target:     r.Target.QualifiedName,
		TargetKind: r.Target.Kind,
		File:       r.Path,
		Line:       r.Span.Line,
		Col:        r.Span.Col,
		Attrs:      r.Attrs,
	}
}

func relationsToCLI(rels []understory.RelationResult) []CLIRelation {
	out := make([]CLIRelation, len(rels))
	for i, r := range rels {
		out[i] = relationToCLI(r)
	}
	return out
}

func symbolToCLI(s understory.SymbolResult) CLISymbol {
	return CLISymbol{
		QualifiedName: s.QualifiedName,
		Name:          s.Name,
		Kind:          s.Kind,
		Type:          s.Type,
		Modifiers:     s.Modifiers,
		Implicit:      s.Implicit,
		File:          s.Path,
		StartLine:     s.StartLine,
		StartCol:      s.StartCol,
		EndLine:       s.EndLine,
		EndCol:        s.EndCol,
		FanIn:         s.FanIn,
	}
}

func symbolsToCLI(syms []understory.SymbolResult) []CLISymbol {
	out := make([]CLISymbol, len(syms))
	for i, s := range syms {
		out[i] = symbolToCLI(s)
	}
	return out
}

func unitToCLI(u *understory.Unit) CLIUnit {
	return CLIUnit{Path: u.Path, Package: u.Package, Status: u.Status, LineCount: u.LineCount, Hash: u.Hash}
}

func runToCLI(r *understory.Run) CLIRun {
	return CLIRun{
		ID:            r.ID,
		Root:          r.Root,
		Noise:         r.Noise,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		UnitCount:     r.UnitCount,
		RelationCount: r.RelationCount,
	}
}

func callGraphToCLI(g *understory.CallGraph) CLICallGraph {
	out := CLICallGraph{
		Root:  g.Root,
		Nodes: make([]CLICallGraphNode, len(g.Nodes)),
		Edges: make([]CLICallGraphEdge, len(g.Edges)),
		Depth: g.Depth,
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = CLICallGraphNode{QualifiedName: n.QualifiedName, Kind: n.Kind, File: n.Path, Depth: n.Depth}
	}
	for i, e := range g.Edges {
		out.Edges[i] = CLICallGraphEdge{Caller: e.Caller, Callee: e.Callee, File: e.Path, Line: e.Line, Col: e.Col}
	}
	return out
}

func typeRelationsToCLI(rels []*understory.TypeRelation) []CLITypeRelation {
	out := make([]CLITypeRelation, len(rels))
	for i, t := range rels {
		out[i] = CLITypeRelation{
			QualifiedName: t.QualifiedName,
			Kind:          t.Kind,
			SymbolKind:    t.SymbolKind,
			File:          t.Path,
			Depth:         t.Depth,
		}
	}
	return out
}
