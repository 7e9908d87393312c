package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/store"
)

var (
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
	flagRun    string
	flagKinds  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the stored relation graph",
	Long:  "Run queries against the latest stored run, or --run. Symbols are addressed by qualified name; line and column numbers are 0-based.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return validateFormat(flagFormat)
	},
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|kind|path|fan_in")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")
	queryCmd.PersistentFlags().StringVar(&flagRun, "run", "", "run ID to query (default: latest)")

	for _, c := range []*cobra.Command{fromCmd, toCmd} {
		c.Flags().StringVar(&flagKinds, "kind", "", "comma-separated relation kinds (e.g. CALL,USE)")
	}

	queryCmd.AddCommand(fromCmd)
	queryCmd.AddCommand(toCmd)
	queryCmd.AddCommand(kindCmd)
	queryCmd.AddCommand(callersCmd)
	queryCmd.AddCommand(calleesCmd)
	queryCmd.AddCommand(capturesCmd)
	queryCmd.AddCommand(runsCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(unitsCmd)
	queryCmd.AddCommand(diagnosticsCmd)
	queryCmd.AddCommand(detailCmd)
	queryCmd.AddCommand(impactCmd)
	queryCmd.AddCommand(transitiveCallersCmd)
	queryCmd.AddCommand(transitiveCalleesCmd)
	queryCmd.AddCommand(hotspotsCmd)
	queryCmd.AddCommand(unusedCmd)
	queryCmd.AddCommand(packageGraphCmd)
	queryCmd.AddCommand(circularDepsCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(implementationsCmd)
}

// --- Relation Commands ---

var fromCmd = &cobra.Command{
	Use:   "from <qualified-name>",
	Short: "List relations whose source is the symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelationQuery("from", func(qb *understory.QueryBuilder, kinds []relation.Kind) ([]understory.RelationResult, error) {
			return qb.RelationsFrom(args[0], kinds...)
		})
	},
}

var toCmd = &cobra.Command{
	Use:   "to <qualified-name>",
	Short: "List relations whose target is the symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelationQuery("to", func(qb *understory.QueryBuilder, kinds []relation.Kind) ([]understory.RelationResult, error) {
			return qb.RelationsTo(args[0], kinds...)
		})
	},
}

var callersCmd = &cobra.Command{
	Use:   "callers <qualified-name>",
	Short: "List CALL relations targeting the method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelationQuery("callers", func(qb *understory.QueryBuilder, _ []relation.Kind) ([]understory.RelationResult, error) {
			return qb.Callers(args[0])
		})
	},
}

var calleesCmd = &cobra.Command{
	Use:   "callees <qualified-name>",
	Short: "List CALL relations made by the method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelationQuery("callees", func(qb *understory.QueryBuilder, _ []relation.Kind) ([]understory.RelationResult, error) {
			return qb.Callees(args[0])
		})
	},
}

var capturesCmd = &cobra.Command{
	Use:   "captures <qualified-name>",
	Short: "List variables captured by a lambda or anonymous class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelationQuery("captures", func(qb *understory.QueryBuilder, _ []relation.Kind) ([]understory.RelationResult, error) {
			return qb.Captures(args[0])
		})
	},
}

var kindCmd = &cobra.Command{
	Use:   "kind <KIND>",
	Short: "List relations of one kind",
	Args:  cobra.ExactArgs(1),
	RunE:  runKind,
}

func runRelationQuery(command string, fn func(*understory.QueryBuilder, []relation.Kind) ([]understory.RelationResult, error)) error {
	kinds, err := parseKinds(flagKinds)
	if err != nil {
		return outputError(command, err)
	}
	s, qb, err := openQuery()
	if err != nil {
		return outputError(command, err)
	}
	defer s.Close()

	rels, err := fn(qb, kinds)
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: relationsToCLI(rels)})
}

func runKind(cmd *cobra.Command, args []string) error {
	kind, err := relation.ParseKind(args[0])
	if err != nil {
		return outputError("kind", err)
	}
	s, qb, err := openQuery()
	if err != nil {
		return outputError("kind", err)
	}
	defer s.Close()

	page, err := qb.RelationsByKind(kind, buildPagination())
	if err != nil {
		return outputError("kind", err)
	}
	total := page.TotalCount
	return outputResult(CLIResult{Command: "kind", Results: relationsToCLI(page.Items), TotalCount: &total})
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, qb, err := openQuery()
		if err != nil {
			return outputError("runs", err)
		}
		defer s.Close()

		runs, err := qb.Runs()
		if err != nil {
			return outputError("runs", err)
		}
		out := make([]CLIRun, len(runs))
		for i, r := range runs {
			out[i] = runToCLI(r)
		}
		return outputResult(CLIResult{Command: "runs", Results: out})
	},
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(findRepoRoot(cwd), cfg)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'understory analyze' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// openQuery opens the store and a QueryBuilder at --run.
func openQuery() (*store.Store, *understory.QueryBuilder, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	qb := understory.NewQueryBuilder(s)
	if flagRun != "" {
		qb = qb.AtRun(flagRun)
	}
	return s, qb, nil
}

// parseKinds parses a comma-separated list of relation kinds.
func parseKinds(s string) ([]relation.Kind, error) {
	var kinds []relation.Kind
	for _, name := range splitList(s) {
		k, err := relation.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() understory.Pagination {
	return understory.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// buildSort creates a Sort from CLI flags.
func buildSort() understory.Sort {
	var field understory.SortField
	switch flagSort {
	case "name":
		field = understory.SortByName
	case "kind":
		field = understory.SortByKind
	case "path":
		field = understory.SortByPath
	case "fan_in":
		field = understory.SortByFanIn
	}

	order := understory.Asc
	if flagOrder == "desc" {
		order = understory.Desc
	}
	return understory.Sort{Field: field, Order: order}
}
