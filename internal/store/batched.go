package store

import "sync"

// BatchedStore buffers one run's inserts in memory using fake (negative)
// IDs. Symbols, relations and diagnostics may reference a buffered unit by
// its fake ID; CommitBatch rewrites them.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	runID string
	mu    sync.Mutex

	Units       []Unit
	Symbols     []Symbol
	Relations   []Relation
	Diagnostics []Diagnostic

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore whose records belong to runID.
func NewBatchedStore(runID string) *BatchedStore {
	return &BatchedStore{
		runID:      runID,
		nextFakeID: -1,
	}
}

// RunID returns the run the batch belongs to.
func (b *BatchedStore) RunID() string { return b.runID }

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertUnit(u *Unit) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	u.ID = fakeID
	u.RunID = b.runID
	b.Units = append(b.Units, *u)
	return fakeID, nil
}

func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sym.ID = fakeID
	sym.RunID = b.runID
	b.Symbols = append(b.Symbols, *sym)
	return fakeID, nil
}

func (b *BatchedStore) InsertRelation(r *Relation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	r.ID = fakeID
	r.RunID = b.runID
	b.Relations = append(b.Relations, *r)
	return fakeID, nil
}

func (b *BatchedStore) InsertDiagnostic(d *Diagnostic) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	d.RunID = b.runID
	b.Diagnostics = append(b.Diagnostics, *d)
	return fakeID, nil
}

// Len returns the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Units) + len(b.Symbols) + len(b.Relations) + len(b.Diagnostics)
}
