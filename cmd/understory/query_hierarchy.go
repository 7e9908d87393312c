package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// --- Type Hierarchy Commands ---

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <qualified-name>",
	Short: "Show the supertypes and subtypes of a type",
	Args:  cobra.ExactArgs(1),
	RunE:  runHierarchy,
}

var implementationsCmd = &cobra.Command{
	Use:   "implementations <qualified-name>",
	Short: "List the concrete subtypes of a type",
	Args:  cobra.ExactArgs(1),
	RunE:  runImplementations,
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("hierarchy", err)
	}
	defer s.Close()

	h, err := qb.TypeHierarchy(args[0])
	if err != nil {
		return outputError("hierarchy", err)
	}
	if h == nil {
		return outputError("hierarchy", fmt.Errorf("unknown type %s", args[0]))
	}
	out := CLITypeHierarchy{
		QualifiedName: h.QualifiedName,
		Supertypes:    typeRelationsToCLI(h.Supertypes),
		Subtypes:      typeRelationsToCLI(h.Subtypes),
	}
	if h.Symbol != nil {
		sym := symbolToCLI(*h.Symbol)
		out.Symbol = &sym
	}
	return outputResult(CLIResult{Command: "hierarchy", Results: out})
}

func runImplementations(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("implementations", err)
	}
	defer s.Close()

	impls, err := qb.Implementations(args[0])
	if err != nil {
		return outputError("implementations", err)
	}
	return outputResult(CLIResult{Command: "implementations", Results: typeRelationsToCLI(impls)})
}
