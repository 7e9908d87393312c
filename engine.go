package understory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jward/understory/internal/filter"
	"github.com/jward/understory/internal/runtime"
	"github.com/jward/understory/internal/store"
)

// ErrNoStore is returned by queries on an Engine created without WithStore.
var ErrNoStore = errors.New("understory: engine has no store")

// Source is one Java compilation unit to analyze. Path identifies the unit
// in results and in the store; it is not read from disk.
type Source struct {
	Path    string
	Content []byte
}

// Engine orchestrates the understory pipeline: source discovery, parsing,
// the declaration and expression passes, filtering, persistence, and query
// access.
type Engine struct {
	store   *store.Store // nil when no store is configured
	dbPath  string
	runtime *runtime.Runtime
	filter  *filter.Filter
	rules   []runtime.Rule

	rulesFS     fs.FS
	rulePaths   []string
	ruleSources []runtime.Rule

	noise         filter.Level
	externalTypes []string
	include       []string
	exclude       []string
	keepRuns      int

	// useParallel enables the concurrent parse, declare and resolve phases.
	useParallel bool
	jobs        int

	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists every run to a SQLite database at path.
func WithStore(path string) Option {
	return func(e *Engine) {
		e.dbPath = path
	}
}

// WithParallel controls concurrent processing. When true (default), the
// parse, declare and resolve phases use a bounded worker pool; filtering
// and commit are always serial.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithJobs bounds the number of concurrent workers. Zero or negative means
// GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) {
		e.jobs = n
	}
}

// WithLogger sets the Engine's logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithNoise sets the noise level applied before rules.
func WithNoise(level filter.Level) Option {
	return func(e *Engine) {
		e.noise = level
	}
}

// WithRule adds a Risor rule file. Paths are read from disk, or from the
// filesystem given to WithRulesFS.
func WithRule(path string) Option {
	return func(e *Engine) {
		e.rulePaths = append(e.rulePaths, path)
	}
}

// WithRuleSource adds an inline Risor rule.
func WithRuleSource(name, source string) Option {
	return func(e *Engine) {
		e.ruleSources = append(e.ruleSources, runtime.Rule{Name: name, Source: source})
	}
}

// WithRulesFS loads rule files and rule libraries from fsys instead of
// from disk. This enables embedding rules via go:embed.
func WithRulesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = fsys
	}
}

// WithExternalTypes declares fully qualified names of types that are not
// part of the analyzed sources but should resolve.
func WithExternalTypes(qns ...string) Option {
	return func(e *Engine) {
		e.externalTypes = append(e.externalTypes, qns...)
	}
}

// WithInclude replaces the doublestar patterns a discovered file must
// match. The default is "**/*.java".
func WithInclude(patterns ...string) Option {
	return func(e *Engine) {
		e.include = patterns
	}
}

// WithExclude sets doublestar patterns that drop discovered files.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = patterns
	}
}

// WithKeepRuns prunes the store to the n most recent runs after each
// commit. Zero keeps every run.
func WithKeepRuns(n int) Option {
	return func(e *Engine) {
		e.keepRuns = n
	}
}

// WithRegistry registers the Engine's metrics on reg instead of a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// New creates an Engine. Rule files are loaded and compiled into the
// filter here, so a bad rule path fails fast.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		noise:       filter.LevelRaw,
		include:     []string{"**/*.java"},
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.registry == nil {
		e.registry = prometheus.NewRegistry()
	}
	for _, p := range append(append([]string{}, e.include...), e.exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("understory: invalid glob pattern %q", p)
		}
	}
	e.metrics = newMetrics(e.registry)

	var rtOpts []runtime.RuntimeOption
	if e.rulesFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.rulesFS))
	}
	rtOpts = append(rtOpts, runtime.WithLogger(e.logger))
	e.runtime = runtime.NewRuntime("", rtOpts...)

	for _, p := range e.rulePaths {
		rule, err := e.runtime.LoadRule(p)
		if err != nil {
			return nil, fmt.Errorf("understory: load rule: %w", err)
		}
		e.rules = append(e.rules, rule)
	}
	e.rules = append(e.rules, e.ruleSources...)

	var filterOpts []filter.Option
	if len(e.rules) > 0 {
		filterOpts = append(filterOpts, filter.WithRules(e.runtime, e.rules...))
	}
	filterOpts = append(filterOpts, filter.WithLogger(e.logger))
	e.filter = filter.New(e.noise, filterOpts...)

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("understory: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("understory: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's rule runtime and database resources.
func (e *Engine) Close() error {
	if e.runtime != nil {
		e.runtime.Close()
	}
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store for direct access, or nil.
func (e *Engine) Store() *Store {
	return e.store
}

// Gatherer returns the registry holding the Engine's metrics.
func (e *Engine) Gatherer() prometheus.Gatherer {
	return e.registry
}

// Query returns a new QueryBuilder over the latest finished run.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// rulesHash identifies the rule set a run was filtered with.
func (e *Engine) rulesHash() string {
	m := make(map[string]string, len(e.rules))
	for _, r := range e.rules {
		m[r.Name] = r.Source
	}
	return store.RulesHash(m)
}

// AnalyzeFiles reads and analyzes the given files. Unreadable files are
// reported in the returned error and skipped; the rest are analyzed.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) (*Report, error) {
	var (
		sources []Source
		errs    []error
	)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", p, err))
			continue
		}
		sources = append(sources, Source{Path: p, Content: content})
	}
	return e.analyze(ctx, "", sources, errs)
}

// skipDirs are never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"build":        true,
}

// AnalyzeDirectory discovers Java files under root and analyzes them. If
// root is inside a git repository, git ls-files is used to respect
// .gitignore; otherwise the filesystem is walked. Discovered files are
// filtered by the include and exclude patterns, matched against their
// slash-separated path relative to root, which is also the unit path.
func (e *Engine) AnalyzeDirectory(ctx context.Context, root string) (*Report, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}
	rels, err := gitListFiles(abs)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", abs, "err", err)
		rels, err = walkListFiles(abs)
		if err != nil {
			return nil, fmt.Errorf("understory: %w", err)
		}
	}
	rels = e.match(rels)
	e.logger.Debug("discovered sources", "root", abs, "count", len(rels))

	var (
		sources []Source
		errs    []error
	)
	for _, rel := range rels {
		content, err := os.ReadFile(filepath.Join(abs, filepath.FromSlash(rel)))
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", rel, err))
			continue
		}
		sources = append(sources, Source{Path: rel, Content: content})
	}
	return e.analyze(ctx, abs, sources, errs)
}

// match keeps the supported paths that match an include pattern and no
// exclude pattern, sorted.
func (e *Engine) match(rels []string) []string {
	var out []string
	for _, rel := range rels {
		if _, ok := runtime.LanguageForFile(rel); !ok {
			continue
		}
		if !matchAny(e.include, rel) || matchAny(e.exclude, rel) {
			continue
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root. Paths are slash-separated and relative.
func gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available. Skips hidden directories and
// skipDirs.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
