package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var detailCmd = &cobra.Command{
	Use:   "detail <qualified-name>",
	Short: "Show a symbol with its signature relations, members and relation counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetail,
}

var impactCmd = &cobra.Command{
	Use:   "impact <path>...",
	Short: "List the units affected by a change to the given units",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImpact,
}

func runDetail(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("detail", err)
	}
	defer s.Close()

	d, err := qb.SymbolDetail(args[0])
	if err != nil {
		return outputError("detail", err)
	}
	if d == nil {
		return outputError("detail", fmt.Errorf("unknown symbol %s", args[0]))
	}
	return outputResult(CLIResult{Command: "detail", Results: CLISymbolDetail{
		Symbol:      symbolToCLI(d.Symbol),
		Parameters:  relationsToCLI(d.Parameters),
		Returns:     relationsToCLI(d.Returns),
		Throws:      relationsToCLI(d.Throws),
		Annotations: relationsToCLI(d.Annotations),
		Members:     symbolsToCLI(d.Members),
		Outgoing:    d.Outgoing,
		Incoming:    d.Incoming,
	}})
}

func runImpact(cmd *cobra.Command, args []string) error {
	s, qb, err := openQuery()
	if err != nil {
		return outputError("impact", err)
	}
	defer s.Close()

	affected, err := qb.Impact(args...)
	if err != nil {
		return outputError("impact", err)
	}
	if affected == nil {
		affected = []string{}
	}
	return outputResult(CLIResult{Command: "impact", Results: affected})
}
