// Package filter drops noise from a resolved relation set. A noise level
// removes relations to entities outside the analyzed sources; Risor rules
// then decide relation by relation.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/runtime"
	"github.com/jward/understory/internal/scope"
)

// Level is how aggressively external targets are dropped.
type Level string

const (
	// LevelRaw keeps every relation.
	LevelRaw Level = "raw"
	// LevelBalanced drops relations whose target is external, except THROW
	// and CAPTURE.
	LevelBalanced Level = "balanced"
	// LevelPure keeps only relations between entities of the analyzed
	// sources.
	LevelPure Level = "pure"
)

// ErrUnknownLevel is returned by ParseLevel for an unrecognized name.
var ErrUnknownLevel = errors.New("filter: unknown noise level")

// ParseLevel converts a level name. The empty string is LevelRaw.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "", LevelRaw:
		return LevelRaw, nil
	case LevelBalanced, LevelPure:
		return Level(s), nil
	}
	return "", fmt.Errorf("%w %q (want raw, balanced or pure)", ErrUnknownLevel, s)
}

// Filter applies a noise level and an ordered list of rules.
type Filter struct {
	level  Level
	rt     *runtime.Runtime
	rules  []runtime.Rule
	logger *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithRules adds rules evaluated by rt. A relation is kept only if every
// rule keeps it.
func WithRules(rt *runtime.Runtime, rules ...runtime.Rule) Option {
	return func(f *Filter) {
		f.rt = rt
		f.rules = append(f.rules, rules...)
	}
}

// WithLogger sets the logger for dropped-relation debug output.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) {
		f.logger = l
	}
}

// New creates a Filter for level.
func New(level Level, opts ...Option) *Filter {
	f := &Filter{
		level:  level,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Level returns the filter's noise level.
func (f *Filter) Level() Level { return f.level }

// External reports whether rel points outside the analyzed sources.
func External(rel relation.Relation) bool {
	return rel.Attrs.Bool(relation.External) ||
		rel.Attrs.Bool(relation.Unresolved) ||
		rel.Target.Kind == string(scope.SymPrimitive)
}

// IsNoise reports whether the noise level drops rel.
func (f *Filter) IsNoise(rel relation.Relation) bool {
	switch f.level {
	case LevelBalanced:
		switch rel.Kind {
		case relation.Throw, relation.Capture:
			return false
		}
		return External(rel)
	case LevelPure:
		return External(rel)
	}
	return false
}

// Apply returns the relations that survive the noise level and every rule.
// A rule that fails on a relation keeps it; all failures are returned
// together.
func (f *Filter) Apply(ctx context.Context, rels []relation.Relation) ([]relation.Relation, error) {
	out := make([]relation.Relation, 0, len(rels))
	var errs []error
	dropped := 0
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if f.IsNoise(rel) {
			dropped++
			continue
		}
		keep, err := f.keep(ctx, rel)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
		}
		if !keep {
			dropped++
			continue
		}
		out = append(out, rel)
	}
	f.logger.Debug("filter applied", "level", f.level, "rules", len(f.rules), "in", len(rels), "dropped", dropped)
	if len(errs) > 0 {
		return out, fmt.Errorf("filter: %d rule error(s): %w", len(errs), errors.Join(errs...))
	}
	return out, nil
}

func (f *Filter) keep(ctx context.Context, rel relation.Relation) (bool, error) {
	for _, rule := range f.rules {
		ok, err := f.rt.Keep(ctx, rule, rel)
		if err != nil {
			return true, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
