package understory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/javasem"
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/runtime"
	"github.com/jward/understory/internal/store"
)

// Analyze runs the pipeline over sources:
//
//	Phase A (parallel): parse every unit with tree-sitter.
//	Phase B (parallel, then serial): declaration passes; exports are merged
//	                    into the project index in path order and the index
//	                    is frozen.
//	Phase C (parallel): expression passes against the frozen index.
//	Phase D (serial):   noise filter and rules, then commit to the store.
//
// Per-unit failures are recorded in the unit's status and diagnostics and
// never abort the run. Rule and commit errors are aggregated into the
// returned error, and the report is still returned. A cancelled context
// returns nil and the context's error.
func (e *Engine) Analyze(ctx context.Context, sources []Source) (*Report, error) {
	return e.analyze(ctx, "", sources, nil)
}

func (e *Engine) analyze(ctx context.Context, root string, sources []Source, errs []error) (*Report, error) {
	start := time.Now()
	sources = slices.Clone(sources)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	for i := 1; i < len(sources); i++ {
		if sources[i].Path == sources[i-1].Path {
			return nil, fmt.Errorf("understory: duplicate source path %q", sources[i].Path)
		}
	}

	report := &Report{
		Root: root,
		Stats: Stats{
			ByKind: make(map[string]int),
			Phases: make(map[string]time.Duration),
		},
	}

	// ---- Phase A: parse ----
	units := make([]javasem.Unit, len(sources))
	defer func() {
		for _, u := range units {
			if u.Tree != nil {
				u.Tree.Close()
			}
		}
	}()
	err := e.timePhase(&report.Stats, "parse", func() error {
		return e.forEach(ctx, len(sources), func(i int) {
			src := sources[i]
			tree, err := runtime.Parse(ctx, src.Content)
			if err != nil {
				e.logger.Warn("parse failed", "path", src.Path, "err", err)
			}
			units[i] = javasem.Unit{Path: src.Path, Source: src.Content, Tree: tree}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}

	// ---- Phase B: declare, merge, freeze ----
	declared := make([]*javasem.Declared, len(units))
	ix := index.New(index.WithExternalTypes(e.externalTypes...))
	err = e.timePhase(&report.Stats, "declare", func() error {
		if err := e.forEach(ctx, len(units), func(i int) {
			declared[i] = javasem.Declare(units[i])
		}); err != nil {
			return err
		}
		// Merging in path order makes the winner of a duplicate type
		// independent of scheduling.
		for _, d := range declared {
			if err := javasem.AddExports(ix, d); err != nil {
				e.logger.Debug("index merge", "path", d.Path(), "err", err)
			}
		}
		ix.Freeze()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}
	e.logger.Debug("project index frozen", "types", ix.Len())

	// ---- Phase C: resolve ----
	results := make([]*javasem.Result, len(declared))
	err = e.timePhase(&report.Stats, "resolve", func() error {
		return e.forEach(ctx, len(declared), func(i int) {
			results[i] = javasem.Resolve(declared[i], ix)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}

	// ---- Phase D: filter and commit ----
	err = e.timePhase(&report.Stats, "filter", func() error {
		for i, res := range results {
			kept, err := e.filter.Apply(ctx, res.Relations)
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("filter %s: %w", res.Path, err))
			}
			report.Units = append(report.Units, e.unitResult(sources[i], res, kept))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}
	e.tally(report)

	if e.store != nil {
		if err := e.timePhase(&report.Stats, "commit", func() error { return e.commit(report) }); err != nil {
			errs = append(errs, err)
		}
	}

	report.Stats.Duration = time.Since(start)
	e.metrics.runs.Inc()
	e.logger.Info("analysis finished",
		"run", report.RunID,
		"units", report.Stats.Units,
		"failed", report.Stats.Failed,
		"relations", report.Stats.Relations,
		"dropped", report.Stats.Dropped,
		"duration", report.Stats.Duration,
	)

	if len(errs) > 0 {
		return report, fmt.Errorf("understory: analysis had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return report, nil
}

func (e *Engine) unitResult(src Source, res *javasem.Result, kept []relation.Relation) UnitResult {
	if res.Status == javasem.StatusFailed {
		e.logger.Warn("unit failed", "path", res.Path, "diagnostics", len(res.Diagnostics))
	}
	return UnitResult{
		Path:        res.Path,
		Package:     res.Package,
		Hash:        store.ContentHash(src.Content),
		LineCount:   bytes.Count(src.Content, []byte{'\n'}) + 1,
		Status:      res.Status,
		Relations:   kept,
		Dropped:     len(res.Relations) - len(kept),
		Symbols:     res.Symbols,
		Diagnostics: res.Diagnostics,
	}
}

// tally fills the report's stats and records metrics.
func (e *Engine) tally(report *Report) {
	st := &report.Stats
	for _, u := range report.Units {
		st.Units++
		switch u.Status {
		case javasem.StatusOK:
			st.OK++
		case javasem.StatusPartial:
			st.Partial++
		case javasem.StatusFailed:
			st.Failed++
		}
		e.metrics.units.WithLabelValues(string(u.Status)).Inc()

		st.Relations += len(u.Relations)
		st.Dropped += u.Dropped
		e.metrics.dropped.Add(float64(u.Dropped))
		for _, rel := range u.Relations {
			kind := rel.Kind.String()
			st.ByKind[kind]++
			e.metrics.relations.WithLabelValues(kind).Inc()
		}

		st.Diagnostics += len(u.Diagnostics)
		for _, d := range u.Diagnostics {
			e.metrics.diagnostics.WithLabelValues(string(d.Kind)).Inc()
		}
	}
}

// commit writes the report to the store as a new run. All rows go through
// one BatchedStore and one transaction; a failed commit leaves no run
// behind.
func (e *Engine) commit(report *Report) error {
	hashes := make(map[string]string, len(report.Units))
	for _, u := range report.Units {
		hashes[u.Path] = u.Hash
	}
	prev, err := e.store.LatestRun()
	switch {
	case errors.Is(err, store.ErrNoRuns):
		for _, u := range report.Units {
			report.Changed = append(report.Changed, u.Path)
		}
	case err != nil:
		return fmt.Errorf("commit: %w", err)
	default:
		report.Changed, report.Removed, err = e.store.ChangedUnits(prev.ID, hashes)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	run := &store.Run{Root: report.Root, Noise: string(e.noise), RulesHash: e.rulesHash()}
	if err := e.store.BeginRun(run); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	batch := store.NewBatchedStore(run.ID)
	for _, u := range report.Units {
		unitID, _ := batch.InsertUnit(&store.Unit{
			Path:      u.Path,
			Package:   u.Package,
			Hash:      u.Hash,
			Status:    string(u.Status),
			LineCount: u.LineCount,
		})
		qns := make([]string, 0, len(u.Symbols))
		for qn := range u.Symbols {
			qns = append(qns, qn)
		}
		sort.Strings(qns)
		for _, qn := range qns {
			sym := u.Symbols[qn]
			_, _ = batch.InsertSymbol(&store.Symbol{
				UnitID:        unitID,
				QualifiedName: sym.QualifiedName,
				Name:          sym.Name,
				Kind:          string(sym.Kind),
				Type:          sym.Type,
				Modifiers:     sym.Modifiers,
				Implicit:      sym.Implicit,
				StartLine:     sym.Span.StartLine,
				StartCol:      sym.Span.StartCol,
				EndLine:       sym.Span.EndLine,
				EndCol:        sym.Span.EndCol,
			})
		}
		for _, rel := range u.Relations {
			r := store.FromRelation(rel)
			r.UnitID = unitID
			_, _ = batch.InsertRelation(r)
		}
		for _, d := range u.Diagnostics {
			_, _ = batch.InsertDiagnostic(&store.Diagnostic{
				UnitID:  unitID,
				Kind:    string(d.Kind),
				Message: d.Message,
				Line:    d.Line,
				Col:     d.Col,
			})
		}
	}

	if err := e.store.CommitBatch(batch); err != nil {
		_ = e.store.DeleteRun(run.ID)
		return fmt.Errorf("commit: %w", err)
	}
	if err := e.store.FinishRun(run.ID); err != nil {
		_ = e.store.DeleteRun(run.ID)
		return fmt.Errorf("commit: %w", err)
	}
	report.RunID = run.ID

	if e.keepRuns > 0 {
		pruned, err := e.store.PruneRuns(e.keepRuns)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if pruned > 0 {
			e.logger.Debug("pruned runs", "count", pruned)
		}
	}
	return nil
}

// workers returns the concurrency limit of the parallel phases.
func (e *Engine) workers() int {
	if !e.useParallel {
		return 1
	}
	if e.jobs > 0 {
		return e.jobs
	}
	return goruntime.GOMAXPROCS(0)
}

// forEach calls fn for 0..n-1 on a bounded worker pool and waits for all of
// them. fn must only write to its own index.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Engine) timePhase(st *Stats, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	st.Phases[name] = d
	e.metrics.phaseDuration.WithLabelValues(name).Observe(d.Seconds())
	e.logger.Debug("phase finished", "phase", name, "duration", d)
	return err
}
