package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/refill/internal/batch"
	"github.com/roach88/refill/internal/loadsql"
)

// RefGetter returns a reusable constructor for database references into
// table: each call builds a reference matching the given values against
// matchColumns and resolving to idColumns. Callers use it to reference rows
// the engine did not itself insert.
func (e *Engine) RefGetter(table string, matchColumns, idColumns []string) func(values ...batch.Value) batch.DBRef {
	return func(values ...batch.Value) batch.DBRef {
		return batch.DBRef{
			Table:        table,
			MatchColumns: matchColumns,
			MatchValues:  values,
			IDColumns:    idColumns,
		}
	}
}

// RefDeleter returns a function deleting all rows of table whose matchColumns
// equal the given values. Shares the engine's runner.
func (e *Engine) RefDeleter(table string, matchColumns []string) func(ctx context.Context, values ...batch.Value) error {
	return func(ctx context.Context, values ...batch.Value) error {
		stmt, err := loadsql.Delete(table, matchColumns)
		if err != nil {
			return newWriteError(table, "", err)
		}
		args := make([]any, len(values))
		for i, v := range values {
			arg, err := batch.BindArg(v)
			if err != nil {
				return newWriteError(table, "", err)
			}
			args[i] = arg
		}
		if _, err := e.runner.Query(ctx, stmt, args...); err != nil {
			return newWriteError(table, "", err)
		}
		return nil
	}
}

// ResolveRefs resolves a set of independent database references and returns a
// mapping of the same keys to identifiers. The references share no ordering
// dependency, so they resolve concurrently; the first failure cancels the
// rest and is returned.
func (e *Engine) ResolveRefs(ctx context.Context, refs map[string]batch.DBRef) (map[string]batch.Value, error) {
	out := make(map[string]batch.Value, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, ref := range refs {
		g.Go(func() error {
			id, err := e.res.resolveDBRef(gctx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			out[key] = id
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
