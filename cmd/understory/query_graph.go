package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
)

// --- Graph Analysis Commands ---

var transitiveCallersCmd = &cobra.Command{
	Use:   "transitive-callers <qualified-name>",
	Short: "Find all transitive callers of a method",
	Long:  "Returns the transitive call graph of callers up to --max-depth.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransitive(cmd, "transitive-callers", args[0], (*understory.QueryBuilder).TransitiveCallers)
	},
}

var transitiveCalleesCmd = &cobra.Command{
	Use:   "transitive-callees <qualified-name>",
	Short: "Find all transitive callees of a method",
	Long:  "Returns the transitive call graph of callees up to --max-depth.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransitive(cmd, "transitive-callees", args[0], (*understory.QueryBuilder).TransitiveCallees)
	},
}

var packageGraphCmd = &cobra.Command{
	Use:   "package-graph",
	Short: "Show the package dependency graph",
	Args:  cobra.NoArgs,
	RunE:  runPackageGraph,
}

var circularDepsCmd = &cobra.Command{
	Use:   "circular-deps",
	Short: "Detect circular package dependencies",
	Args:  cobra.NoArgs,
	RunE:  runCircularDeps,
}

var unusedCmd = &cobra.Command{
	Use:   "unused [prefix]",
	Short: "List declared symbols no relation targets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUnused,
}

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Show the most targeted symbols with call metrics",
	Args:  cobra.NoArgs,
	RunE:  runHotspots,
}

func init() {
	transitiveCallersCmd.Flags().Int("max-depth", 5, "maximum traversal depth (0-100)")
	transitiveCalleesCmd.Flags().Int("max-depth", 5, "maximum traversal depth (0-100)")

	hotspotsCmd.Flags().Int("top", 10, "number of top hotspots to return")
	hotspotsCmd.Flags().String("kind", "", "comma-separated relation kinds counted as fan-in (default: all)")
}

func runTransitive(cmd *cobra.Command, command, qn string,
	fn func(*understory.QueryBuilder, string, int) (*understory.CallGraph, error)) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError(command, err)
	}
	defer s.Close()

	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	graph, err := fn(qb, qn, maxDepth)
	if err != nil {
		return outputError(command, err)
	}
	if graph == nil {
		return outputError(command, fmt.Errorf("unknown method %s", qn))
	}
	return outputResult(CLIResult{Command: command, Results: callGraphToCLI(graph)})
}

func runPackageGraph(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("package-graph", err)
	}
	defer s.Close()

	graph, err := qb.PackageDependencyGraph()
	if err != nil {
		return outputError("package-graph", err)
	}
	out := CLIPackageGraph{
		Packages: make([]CLIPackageNode, len(graph.Packages)),
		Edges:    make([]CLIPackageEdge, len(graph.Edges)),
	}
	for i, p := range graph.Packages {
		out.Packages[i] = CLIPackageNode{Name: p.Name, UnitCount: p.UnitCount, LineCount: p.LineCount}
	}
	for i, e := range graph.Edges {
		out.Edges[i] = CLIPackageEdge{From: e.FromPackage, To: e.ToPackage, RelationCount: e.RelationCount}
	}
	return outputResult(CLIResult{Command: "package-graph", Results: out})
}

func runCircularDeps(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("circular-deps", err)
	}
	defer s.Close()

	cycles, err := qb.CircularDependencies()
	if err != nil {
		return outputError("circular-deps", err)
	}
	return outputResult(CLIResult{Command: "circular-deps", Results: cycles})
}

func runUnused(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("unused", err)
	}
	defer s.Close()

	page, err := qb.UnusedSymbols(buildSymbolFilter(args), buildSort(), buildPagination())
	if err != nil {
		return outputError("unused", err)
	}
	total := page.TotalCount
	return outputResult(CLIResult{Command: "unused", Results: symbolsToCLI(page.Items), TotalCount: &total})
}

func runHotspots(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	kindFlag, _ := cmd.Flags().GetString("kind")
	kinds, err := parseKinds(kindFlag)
	if err != nil {
		return outputError("hotspots", err)
	}
	s, qb, err := openQuery()
	if err != nil {
		return outputError("hotspots", err)
	}
	defer s.Close()

	hot, err := qb.Hotspots(top, kinds...)
	if err != nil {
		return outputError("hotspots", err)
	}
	out := make([]CLIHotspot, len(hot))
	for i, h := range hot {
		out[i] = CLIHotspot{Symbol: symbolToCLI(h.Symbol), CallerCount: h.CallerCount, CalleeCount: h.CalleeCount}
	}
	return outputResult(CLIResult{Command: "hotspots", Results: out})
}

