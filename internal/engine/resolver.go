package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/refill/internal/batch"
)

// resolver walks a record's fields and replaces every reference value with a
// concrete identifier. Local references resolve purely from the registry;
// database references issue lookups through the runner.
type resolver struct {
	runner Runner
	reg    *Registry
}

// resolveObject resolves every field of params in declared order and returns
// a new object of the same shape containing only scalars, resolved objects,
// and resolved arrays.
//
// An unresolvable local reference degrades to null and is reported in the
// returned diagnostics; it never fails the record. A zero-row or failed
// database-reference lookup is fatal and aborts the whole record's
// resolution.
//
// Resolving an already fully-resolved object is a no-op aside from the copy.
func (r *resolver) resolveObject(ctx context.Context, table, localID string, params batch.Object) (batch.Object, []Diagnostic, error) {
	out := make(batch.Object, len(params))
	var diags []Diagnostic
	for i, f := range params {
		rv, ds, err := r.resolveValue(ctx, table, localID, f.Column, f.Value)
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, ds...)
		out[i] = batch.Field{Column: f.Column, Value: rv}
	}
	return out, diags, nil
}

// resolveValue resolves a single value. path identifies the field for
// diagnostics, extended as the walk descends into containers.
func (r *resolver) resolveValue(ctx context.Context, table, localID, path string, v batch.Value) (batch.Value, []Diagnostic, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil, fmt.Errorf("nil value at %s/%s.%s", table, localID, path)

	case batch.LocalRef:
		if id, ok := r.reg.Lookup(val.Table, val.ID); ok {
			return id, nil, nil
		}
		diag := Diagnostic{
			Table:    table,
			LocalID:  localID,
			Column:   path,
			RefTable: val.Table,
			RefID:    val.ID,
		}
		return batch.Null{}, []Diagnostic{diag}, nil

	case batch.DBRef:
		id, err := r.resolveDBRef(ctx, val)
		if err != nil {
			return nil, nil, err
		}
		return id, nil, nil

	case batch.Object:
		out := make(batch.Object, len(val))
		var diags []Diagnostic
		for i, f := range val {
			rv, ds, err := r.resolveValue(ctx, table, localID, path+"."+f.Column, f.Value)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, ds...)
			out[i] = batch.Field{Column: f.Column, Value: rv}
		}
		return out, diags, nil

	case batch.Array:
		out := make(batch.Array, len(val))
		var diags []Diagnostic
		for i, elem := range val {
			rv, ds, err := r.resolveValue(ctx, table, localID, fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, nil, err
			}
			diags = append(diags, ds...)
			out[i] = rv
		}
		return out, diags, nil

	default:
		// Scalar: pass through unchanged.
		return v, nil, nil
	}
}

// resolveDBRef resolves a database reference to the identifier of the row it
// matches. Nested database references among the match values are independent
// of each other and resolve concurrently before the outer lookup runs.
func (r *resolver) resolveDBRef(ctx context.Context, ref batch.DBRef) (batch.Value, error) {
	if len(ref.MatchColumns) != len(ref.MatchValues) {
		return nil, newLookupError(ref.Table, fmt.Errorf(
			"reference has %d match columns but %d match values",
			len(ref.MatchColumns), len(ref.MatchValues)))
	}

	// Registry-backed values resolve first so a fatal miss is detected before
	// any nested lookup is issued.
	resolved := make([]batch.Value, len(ref.MatchValues))
	var nested []int
	for i, mv := range ref.MatchValues {
		switch val := mv.(type) {
		case batch.DBRef:
			nested = append(nested, i)
		case batch.LocalRef:
			// A predicate value cannot degrade to null the way a record
			// field can, so an unregistered local reference here is fatal.
			id, ok := r.reg.Lookup(val.Table, val.ID)
			if !ok {
				return nil, newLookupError(ref.Table, fmt.Errorf(
					"unresolved local reference %s/%s in match value %d", val.Table, val.ID, i))
			}
			resolved[i] = id
		default:
			resolved[i] = mv
		}
	}
	if len(nested) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, i := range nested {
			val := ref.MatchValues[i].(batch.DBRef)
			g.Go(func() error {
				id, err := r.resolveDBRef(gctx, val)
				if err != nil {
					return err
				}
				resolved[i] = id
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	idColumns := ref.IDColumns
	if len(idColumns) == 0 {
		idColumns = []string{"id"}
	}
	id, found, err := findExisting(ctx, r.runner, ref.Table, ref.MatchColumns, idColumns, resolved)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newRefNotFoundError(ref.Table, ref.MatchColumns)
	}
	return id, nil
}
