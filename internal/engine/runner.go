package engine

import "context"

// Row is one result row: column name to scalar value, as handed back by the
// underlying driver.
type Row map[string]any

// Result carries the outcome of one statement. SELECT-shaped statements fill
// Rows; write statements fill LastInsertID and RowsAffected.
type Result struct {
	Rows         []Row
	LastInsertID int64
	RowsAffected int64
}

// Runner is the narrow storage capability the engine consumes: execute one
// parameterized statement and return its rows or the assigned identifier.
//
// Contract:
//   - stmt uses positional ? placeholders; args bind left to right, one per
//     placeholder.
//   - A successful SELECT returns the matching rows in result order.
//   - A successful INSERT additionally carries the newly assigned row
//     identifier in LastInsertID.
//
// Any storage backend satisfying this is pluggable; pooling, retries, and
// timeouts are the implementation's business. store.Store is the SQLite
// implementation.
type Runner interface {
	Query(ctx context.Context, stmt string, args ...any) (*Result, error)
}
