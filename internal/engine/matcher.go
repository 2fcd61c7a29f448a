package engine

import (
	"context"
	"fmt"

	"github.com/roach88/refill/internal/batch"
	"github.com/roach88/refill/internal/loadsql"
)

// findExisting determines whether a row matching the given column values
// already exists in table.
//
// Zero rows is the distinguished "not found" outcome, not an error. One or
// more rows returns the identifier column value(s) of the FIRST row: a bare
// scalar when idColumns names exactly one column, a composite object (column
// to value, in idColumns order) when it names several. The polymorphic return
// shape is part of the contract.
//
// More than one matching row is treated identically to exactly one - the
// first row wins, with no tie-break ordering imposed. Callers whose match
// columns are not unique get whichever row the store returns first.
func findExisting(ctx context.Context, runner Runner, table string, matchColumns, idColumns []string, matchValues []batch.Value) (batch.Value, bool, error) {
	if len(matchColumns) != len(matchValues) {
		return nil, false, newLookupError(table, fmt.Errorf(
			"%d match columns but %d match values", len(matchColumns), len(matchValues)))
	}

	stmt, err := loadsql.Select(table, idColumns, matchColumns)
	if err != nil {
		return nil, false, newLookupError(table, err)
	}

	args := make([]any, len(matchValues))
	for i, v := range matchValues {
		arg, err := batch.BindArg(v)
		if err != nil {
			return nil, false, newLookupError(table, fmt.Errorf("match value for %q: %w", matchColumns[i], err))
		}
		args[i] = arg
	}

	res, err := runner.Query(ctx, stmt, args...)
	if err != nil {
		return nil, false, newLookupError(table, err)
	}
	if len(res.Rows) == 0 {
		return nil, false, nil
	}

	row := res.Rows[0]
	if len(idColumns) == 1 {
		id, err := batch.ScalarFromStore(row[idColumns[0]])
		if err != nil {
			return nil, false, newLookupError(table, fmt.Errorf("identifier column %q: %w", idColumns[0], err))
		}
		return id, true, nil
	}

	composite := make(batch.Object, len(idColumns))
	for i, col := range idColumns {
		v, err := batch.ScalarFromStore(row[col])
		if err != nil {
			return nil, false, newLookupError(table, fmt.Errorf("identifier column %q: %w", col, err))
		}
		composite[i] = batch.Field{Column: col, Value: v}
	}
	return composite, true, nil
}

// matchValuesFrom extracts the values for matchColumns from an already
// resolved record. Every match column must be present in the record.
func matchValuesFrom(resolved batch.Object, matchColumns []string, table string) ([]batch.Value, error) {
	values := make([]batch.Value, len(matchColumns))
	for i, col := range matchColumns {
		v, ok := resolved.Get(col)
		if !ok {
			return nil, newLookupError(table, fmt.Errorf("match column %q not present in record", col))
		}
		values[i] = v
	}
	return values, nil
}
