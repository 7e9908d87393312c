package understory

import (
	"time"

	"github.com/jward/understory/internal/javasem"
	"github.com/jward/understory/internal/relation"
)

// UnitResult is the outcome of analyzing one compilation unit.
type UnitResult struct {
	Path        string
	Package     string
	Hash        string
	LineCount   int
	Status      javasem.Status
	Relations   []relation.Relation // after filtering
	Dropped     int                 // relations removed by the filter
	Symbols     map[string]javasem.SymbolInfo
	Diagnostics []javasem.Diagnostic
}

// Stats summarizes a run.
type Stats struct {
	Units       int
	OK          int
	Partial     int
	Failed      int
	Relations   int
	Dropped     int
	Diagnostics int
	ByKind      map[string]int
	Phases      map[string]time.Duration
	Duration    time.Duration
}

// Report is the result of one Analyze call. Units are sorted by path.
type Report struct {
	RunID string // empty when the Engine has no store
	Root  string
	Units []UnitResult
	Stats Stats

	// Changed lists units that are new or differ from the previous run, and
	// Removed lists units of the previous run that are gone. Both are nil
	// when the Engine has no store.
	Changed []string
	Removed []string
}

// Relations returns every kept relation of the run, in unit path order and
// emission order within a unit.
func (r *Report) Relations() []relation.Relation {
	n := 0
	for _, u := range r.Units {
		n += len(u.Relations)
	}
	out := make([]relation.Relation, 0, n)
	for _, u := range r.Units {
		out = append(out, u.Relations...)
	}
	return out
}

// Unit returns the result for path, or nil.
func (r *Report) Unit(path string) *UnitResult {
	for i := range r.Units {
		if r.Units[i].Path == path {
			return &r.Units[i]
		}
	}
	return nil
}
