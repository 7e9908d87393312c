package understory

import (
	"fmt"

	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/store"
)

// QueryBuilder provides a query API over the relations of one stored run.
// The zero run means the latest finished run.
type QueryBuilder struct {
	store *store.Store
	runID string
}

// NewQueryBuilder returns a QueryBuilder over an already open store.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// AtRun returns a QueryBuilder reading runID instead of the latest run.
func (q *QueryBuilder) AtRun(runID string) *QueryBuilder {
	return &QueryBuilder{store: q.store, runID: runID}
}

// Run returns the run the QueryBuilder reads.
func (q *QueryBuilder) Run() (*Run, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	if q.runID == "" {
		return q.store.LatestRun()
	}
	run, err := q.store.RunByID(q.runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("understory: unknown run %q", q.runID)
	}
	return run, nil
}

// Runs lists every stored run, newest first.
func (q *QueryBuilder) Runs() ([]*Run, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.Runs()
}

func (q *QueryBuilder) run() (string, error) {
	run, err := q.Run()
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// RelationResult is a stored relation with the path of the unit it was
// emitted in.
type RelationResult struct {
	relation.Relation
	Path string
}

// RelationsFrom returns the relations whose source is qn, optionally
// restricted to kinds, in emission order.
func (q *QueryBuilder) RelationsFrom(qn string, kinds ...relation.Kind) ([]RelationResult, error) {
	rels, err := q.relations(store.RelationFilter{Source: qn, Kinds: kindNames(kinds)})
	if err != nil {
		return nil, fmt.Errorf("relations from: %w", err)
	}
	return rels, nil
}

// RelationsTo returns the relations whose target is qn, optionally
// restricted to kinds.
func (q *QueryBuilder) RelationsTo(qn string, kinds ...relation.Kind) ([]RelationResult, error) {
	rels, err := q.relations(store.RelationFilter{Target: qn, Kinds: kindNames(kinds)})
	if err != nil {
		return nil, fmt.Errorf("relations to: %w", err)
	}
	return rels, nil
}

// RelationsByKind returns one page of the run's relations of kind.
func (q *QueryBuilder) RelationsByKind(kind relation.Kind, page Pagination) (*PagedResult[RelationResult], error) {
	rels, err := q.relations(store.RelationFilter{Kinds: []string{kind.String()}})
	if err != nil {
		return nil, fmt.Errorf("relations by kind: %w", err)
	}
	return paginate(rels, page), nil
}

// Callers returns the CALL relations targeting the method qn.
func (q *QueryBuilder) Callers(qn string) ([]RelationResult, error) {
	return q.RelationsTo(qn, relation.Call)
}

// Callees returns the CALL relations made from the method qn.
func (q *QueryBuilder) Callees(qn string) ([]RelationResult, error) {
	return q.RelationsFrom(qn, relation.Call)
}

// Captures returns the CAPTURE relations of the lambda, anonymous class or
// local class qn.
func (q *QueryBuilder) Captures(qn string) ([]RelationResult, error) {
	return q.RelationsFrom(qn, relation.Capture)
}

func (q *QueryBuilder) relations(f store.RelationFilter) ([]RelationResult, error) {
	runID, err := q.run()
	if err != nil {
		return nil, err
	}
	stored, err := q.store.Relations(runID, f)
	if err != nil {
		return nil, err
	}
	paths, err := q.unitPaths(runID)
	if err != nil {
		return nil, err
	}
	out := make([]RelationResult, 0, len(stored))
	for _, r := range stored {
		out = append(out, RelationResult{Relation: r.Relation(), Path: paths[r.UnitID]})
	}
	return out, nil
}

// unitPaths maps a run's unit IDs to their paths.
func (q *QueryBuilder) unitPaths(runID string) (map[int64]string, error) {
	units, err := q.store.UnitsByRun(runID)
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(units))
	for _, u := range units {
		paths[u.ID] = u.Path
	}
	return paths, nil
}

func kindNames(kinds []relation.Kind) []string {
	if len(kinds) == 0 {
		return nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
