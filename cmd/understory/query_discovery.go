package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/understory"
)

// --- Discovery Commands ---

var (
	flagSymbolKind string
	flagPathPrefix string
	flagImplicit   bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [prefix]",
	Short: "List declared symbols by qualified name prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbols,
}

var unitsCmd = &cobra.Command{
	Use:   "units [path-prefix]",
	Short: "List analyzed units",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUnits,
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <path>",
	Short: "List the diagnostics of one unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnostics,
}

func init() {
	for _, c := range []*cobra.Command{symbolsCmd, unusedCmd} {
		c.Flags().StringVar(&flagSymbolKind, "kind", "", "comma-separated symbol kinds (e.g. CLASS,METHOD)")
		c.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "filter by unit path prefix")
		c.Flags().BoolVar(&flagImplicit, "implicit", false, "include implicit members")
	}
}

func runSymbols(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("symbols", err)
	}
	defer s.Close()

	page, err := qb.Symbols(buildSymbolFilter(args), buildSort(), buildPagination())
	if err != nil {
		return outputError("symbols", err)
	}
	total := page.TotalCount
	return outputResult(CLIResult{Command: "symbols", Results: symbolsToCLI(page.Items), TotalCount: &total})
}

func runUnits(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("units", err)
	}
	defer s.Close()

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	page, err := qb.Units(prefix, buildPagination())
	if err != nil {
		return outputError("units", err)
	}
	units := make([]CLIUnit, len(page.Items))
	for i, u := range page.Items {
		units[i] = unitToCLI(u)
	}
	total := page.TotalCount
	return outputResult(CLIResult{Command: "units", Results: units, TotalCount: &total})
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("diagnostics", err)
	}
	defer s.Close()

	diags, err := qb.Diagnostics(args[0])
	if err != nil {
		return outputError("diagnostics", err)
	}
	out := make([]CLIDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = CLIDiagnostic{Kind: d.Kind, Message: d.Message, Line: d.Line, Col: d.Col}
	}
	return outputResult(CLIResult{Command: "diagnostics", Results: out})
}

func buildSymbolFilter(args []string) understory.SymbolFilter {
	f := understory.SymbolFilter{
		Kinds:           splitList(flagSymbolKind),
		PathPrefix:      flagPathPrefix,
		IncludeImplicit: flagImplicit,
	}
	if len(args) > 0 {
		f.Prefix = args[0]
	}
	return f
}
