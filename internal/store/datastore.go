package store

// DataStore is the write interface used while committing a run. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// analysis) implement it.
type DataStore interface {
	// Inserts return the assigned ID.
	InsertUnit(u *Unit) (int64, error)
	InsertSymbol(sym *Symbol) (int64, error)
	InsertRelation(r *Relation) (int64, error)
	InsertDiagnostic(d *Diagnostic) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
