// Package runtime hosts the Risor rules that filter relations. Rules see
// the relation under test plus a small set of tree-sitter host functions
// for re-parsing Java snippets.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// ruleExt is the extension of rule files and importable rule libraries.
const ruleExt = ".risor"

// Runtime evaluates Risor programs with the host functions installed.
// A Runtime is safe for concurrent use.
type Runtime struct {
	rulesDir string
	fsys     fs.FS
	sources  *sourceStore
	logger   *slog.Logger
	host     map[string]any
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS reads rules and resolves imports from fsys instead of
// rulesDir.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger behind the log global.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime rooted at rulesDir. rulesDir may be empty
// when rules are only given inline.
func NewRuntime(rulesDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		rulesDir: rulesDir,
		sources:  newSourceStore(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.host = map[string]any{
		"parse":      makeParseFn(r.sources),
		"parse_src":  makeParseSrcFn(r.sources),
		"node_text":  makeNodeTextFn(r.sources),
		"node_child": makeNodeChildFn(),
		"query":      makeQueryFn(r.sources),
		"log":        mustProxy(&logObject{logger: r.logger.With("component", "rules")}),
	}
	return r
}

// RunScript loads scriptPath and evaluates it with the host functions and
// extra as globals.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extra map[string]any) (object.Object, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extra)
}

// RunSource evaluates source with the host functions and extra as globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extra map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extra)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extra map[string]any) (object.Object, error) {
	globals := maps.Clone(r.host)
	maps.Copy(globals, extra)

	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.importer(slices.Sorted(maps.Keys(globals))); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// importer resolves "import name" against the rule filesystem, or nil when
// the Runtime has none. Imported modules see the same globals.
func (r *Runtime) importer(globalNames []string) importer.Importer {
	switch {
	case r.fsys != nil:
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{ruleExt},
		})
	case r.rulesDir != "":
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.rulesDir,
			Extensions:  []string{ruleExt},
		})
	}
	return nil
}

// LoadScript returns the source of the rule at p. With a filesystem
// configured, p is taken relative to its root; otherwise a relative p is
// joined to rulesDir.
func (r *Runtime) LoadScript(p string) (string, error) {
	var (
		data []byte
		err  error
	)
	if r.fsys != nil {
		name := path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
		if data, err = fs.ReadFile(r.fsys, name); err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", name, err)
		}
		return string(data), nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.rulesDir, p)
	}
	if data, err = os.ReadFile(p); err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", p, err)
	}
	return string(data), nil
}

// Close releases the compiled host-function queries. The Runtime stays
// usable; queries are recompiled on demand.
func (r *Runtime) Close() {
	r.sources.close()
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
