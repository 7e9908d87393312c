package understory

import (
	"github.com/jward/understory/internal/relation"
	"github.com/jward/understory/internal/store"
)

// Public type aliases for the internal types used by the Engine and
// QueryBuilder APIs. External consumers use these names; no conversion is
// needed.

type Store = store.Store
type Run = store.Run
type Unit = store.Unit
type Symbol = store.Symbol
type Diagnostic = store.Diagnostic

type Relation = relation.Relation
type Kind = relation.Kind
type Endpoint = relation.Endpoint
type Attrs = relation.Attrs
