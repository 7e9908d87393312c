package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/config"
	"github.com/jward/understory/internal/export"
	"github.com/jward/understory/internal/filter"
)

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is built from --log-level before any command runs.
var logger = slog.New(slog.DiscardHandler)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Scope-aware semantic relation extraction for Java",
	Long:          "Understory parses Java sources with tree-sitter, resolves every reference to its declaration and emits a typed relation graph, optionally persisted to SQLite for queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(flagLogLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .understory/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format (analyze: jsonl|json|text|mermaid, query: json|text)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(queryCmd)
}

// newLogger returns a text logger on stderr at the named level.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

var (
	flagNoise    string
	flagWhere    string
	flagRules    []string
	flagJobs     int
	flagMetrics  string
	flagKeepRuns int
	flagNoStore  bool
	flagForce    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Extract the relation graph of a Java source tree",
	Long:  "Parses every Java file under path, resolves references across units, writes the relations to stdout and records the run in the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagNoise, "noise", "", "noise level: raw|balanced|pure")
	analyzeCmd.Flags().StringVar(&flagWhere, "where", "", "inline Risor rule; relations it rejects are dropped")
	analyzeCmd.Flags().StringSliceVar(&flagRules, "rules", nil, "Risor rule files applied to every relation")
	analyzeCmd.Flags().IntVar(&flagJobs, "jobs", 0, "parallel units (default: GOMAXPROCS)")
	analyzeCmd.Flags().StringVar(&flagMetrics, "metrics", "", "write Prometheus metrics to this file after the run")
	analyzeCmd.Flags().IntVar(&flagKeepRuns, "keep-runs", 0, "prune all but the newest N runs (0 keeps all)")
	analyzeCmd.Flags().BoolVar(&flagNoStore, "no-store", false, "do not persist the run")
	analyzeCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database before analyzing")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(targetDir)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	level, err := filter.ParseLevel(cfg.Noise)
	if err != nil {
		return err
	}

	opts := []understory.Option{
		understory.WithLogger(logger),
		understory.WithNoise(level),
		understory.WithJobs(cfg.Jobs),
		understory.WithInclude(cfg.Include...),
		understory.WithExclude(cfg.Exclude...),
		understory.WithExternalTypes(cfg.ExternalTypes...),
		understory.WithKeepRuns(flagKeepRuns),
	}
	for _, p := range cfg.RulePaths() {
		opts = append(opts, understory.WithRule(p))
	}
	if cfg.Where != "" {
		opts = append(opts, understory.WithRuleSource("where", cfg.Where))
	}

	var dbPath string
	if !flagNoStore {
		dbPath = resolveDBPath(findRepoRoot(targetDir), cfg)
		if err := prepareDB(dbPath); err != nil {
			return err
		}
		opts = append(opts, understory.WithStore(dbPath))
	}

	engine, err := understory.New(opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, analyzeErr := engine.AnalyzeDirectory(ctx, targetDir)
	if report == nil {
		return fmt.Errorf("analyzing: %w", analyzeErr)
	}
	if err := export.Write(os.Stdout, format, report.Relations()); err != nil {
		return err
	}

	st := report.Stats
	fmt.Fprintf(os.Stderr, "Analyzed %s in %s: %d units (%d ok, %d partial, %d failed), %d relations, %d dropped\n",
		targetDir, time.Since(start).Round(time.Millisecond),
		st.Units, st.OK, st.Partial, st.Failed, st.Relations, st.Dropped)
	if dbPath != "" && report.RunID != "" {
		fmt.Fprintf(os.Stderr, "Run %s stored in %s (%d changed, %d removed)\n",
			report.RunID, dbPath, len(report.Changed), len(report.Removed))
	}

	if flagMetrics != "" {
		if err := prometheus.WriteToTextfile(flagMetrics, engine.Gatherer()); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	if analyzeErr != nil {
		return fmt.Errorf("analyzing: %w", analyzeErr)
	}
	return nil
}

// loadConfig reads --config, or the nearest project file above dir.
func loadConfig(dir string) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.LoadOrDefault(dir, logger)
}

// applyFlags overrides cfg with the analyze flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("noise") {
		cfg.Noise = flagNoise
	}
	if flags.Changed("jobs") {
		cfg.Jobs = flagJobs
	}
	if flags.Changed("where") {
		cfg.Where = flagWhere
	}
	for _, r := range flagRules {
		abs, err := filepath.Abs(r)
		if err != nil {
			return fmt.Errorf("resolving rule %q: %w", r, err)
		}
		cfg.Rules = append(cfg.Rules, abs)
	}
	return cfg.Validate()
}

// prepareDB creates the database directory and applies --force.
func prepareDB(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}
	return nil
}

// resolveTargetDir returns the absolute path of the directory to analyze.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file or the default, in that order.
func resolveDBPath(repoRoot string, cfg *config.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	if cfg != nil {
		if p := cfg.DBPath(); p != "" {
			return p
		}
	}
	return filepath.Join(repoRoot, ".understory", "index.db")
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
