package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/refill/internal/batch"
	"github.com/roach88/refill/internal/loadsql"
)

// Engine loads content batches into a relational store, resolving reference
// fields to concrete identifiers as it goes.
//
// Processing is strictly sequential: tables in the batch's declared order,
// records in each table's declared order. No topological sort is performed -
// a record referencing another record's identifier requires that record to
// have been declared, and therefore written, earlier (in the same Insert call
// or a previous call against the same engine).
//
// The registry of assigned identifiers persists across Insert calls for the
// engine's lifetime. An engine must not serve concurrent Insert calls; the
// registry is mutated without locking by the sequential write path.
type Engine struct {
	runner Runner
	reg    *Registry
	res    *resolver
	idGen  IDGenerator
	logger *slog.Logger
	diags  []Diagnostic
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the generator used for tables with GenerateID.
// Default: UUIDv7Generator. Tests use FixedGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithLogger sets the logger for per-record debug output and unresolved
// reference warnings. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine with an empty identifier registry.
func New(runner Runner, opts ...Option) *Engine {
	e := &Engine{
		runner: runner,
		reg:    NewRegistry(),
		idGen:  UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.res = &resolver{runner: e.runner, reg: e.reg}
	return e
}

// Registry exposes the engine's identifier registry so callers can retrieve
// assigned identifiers after a batch completes.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Diagnostics returns the non-fatal resolution failures recorded during the
// most recent Insert call.
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diags
}

// Insert loads a content batch. For each record, in declared order: resolve
// reference fields, optionally check for an existing row, then insert,
// update, or replace, and register the resulting identifier under the
// record's (table, local id).
//
// The first fatal error aborts the remaining records of the current table and
// all remaining tables; rows already written stay committed. Unresolved local
// references are not fatal - see Diagnostics.
func (e *Engine) Insert(ctx context.Context, b batch.ContentBatch) error {
	// Fresh slice per call: a snapshot a caller took from Diagnostics must
	// not be overwritten by a later Insert.
	e.diags = nil
	for _, tb := range b.Tables {
		for _, rec := range tb.Records {
			if err := e.insertRecord(ctx, tb, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) insertRecord(ctx context.Context, tb batch.TableBatch, rec batch.Record) error {
	resolved, diags, err := e.res.resolveObject(ctx, tb.Table, rec.LocalID, rec.Params)
	for _, d := range diags {
		e.logger.Warn("unresolved local reference, field degraded to null",
			"table", d.Table, "record", d.LocalID, "column", d.Column,
			"ref_table", d.RefTable, "ref_id", d.RefID)
	}
	e.diags = append(e.diags, diags...)
	if err != nil {
		return err
	}

	opts := tb.Options
	idColumns := opts.EffectiveIDColumns()

	if len(opts.MatchColumns) > 0 {
		matchValues, err := matchValuesFrom(resolved, opts.MatchColumns, tb.Table)
		if err != nil {
			return err
		}
		id, found, err := findExisting(ctx, e.runner, tb.Table, opts.MatchColumns, idColumns, matchValues)
		if err != nil {
			return err
		}
		if found {
			switch opts.Mode {
			case batch.ModeUpdate:
				if err := e.update(ctx, tb.Table, rec.LocalID, resolved, idColumns, id); err != nil {
					return err
				}
			case batch.ModeReplace:
				if err := e.replace(ctx, tb.Table, rec.LocalID, resolved, idColumns, id); err != nil {
					return err
				}
			case batch.ModeInsertOnly:
				// Row exists and the table is insert-only: nothing to write.
			}
			e.reg.Register(tb.Table, rec.LocalID, id)
			e.logger.Debug("matched existing record",
				"table", tb.Table, "record", rec.LocalID, "mode", opts.Mode.String())
			return nil
		}
	}

	return e.insertNew(ctx, tb, rec.LocalID, resolved)
}

// insertNew inserts a fresh row and registers its identifier: the
// store-assigned one, or a client-minted one when the table declares
// GenerateID.
func (e *Engine) insertNew(ctx context.Context, tb batch.TableBatch, localID string, resolved batch.Object) error {
	var id batch.Value
	if tb.Options.GenerateID {
		generated := batch.String(e.idGen.Generate())
		resolved = resolved.Set(tb.Options.EffectiveIDColumns()[0], generated)
		id = generated
	}

	cols, args, err := batch.BindArgs(resolved)
	if err != nil {
		return newWriteError(tb.Table, localID, err)
	}
	stmt, err := loadsql.Insert(tb.Table, cols)
	if err != nil {
		return newWriteError(tb.Table, localID, err)
	}
	res, err := e.runner.Query(ctx, stmt, args...)
	if err != nil {
		return newWriteError(tb.Table, localID, err)
	}

	if id == nil {
		id = batch.Int(res.LastInsertID)
	}
	e.reg.Register(tb.Table, localID, id)
	e.logger.Debug("inserted record", "table", tb.Table, "record", localID)
	return nil
}

// update issues an update for all supplied non-identifier columns, keyed by
// the matched identifier.
func (e *Engine) update(ctx context.Context, table, localID string, resolved batch.Object, idColumns []string, id batch.Value) error {
	set := withoutColumns(resolved, idColumns)
	if len(set) == 0 {
		return nil
	}
	setCols, setArgs, err := batch.BindArgs(set)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	keyArgs, err := identifierArgs(id, idColumns)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	stmt, err := loadsql.Update(table, setCols, idColumns)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	if _, err := e.runner.Query(ctx, stmt, append(setArgs, keyArgs...)...); err != nil {
		return newWriteError(table, localID, err)
	}
	return nil
}

// replace issues an idempotent replace-or-overwrite supplying all columns
// plus the matched identifier.
func (e *Engine) replace(ctx context.Context, table, localID string, resolved batch.Object, idColumns []string, id batch.Value) error {
	full, err := withIdentifier(resolved, idColumns, id)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	cols, args, err := batch.BindArgs(full)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	stmt, err := loadsql.Replace(table, cols)
	if err != nil {
		return newWriteError(table, localID, err)
	}
	if _, err := e.runner.Query(ctx, stmt, args...); err != nil {
		return newWriteError(table, localID, err)
	}
	return nil
}

// withoutColumns returns resolved minus the named columns, preserving order.
func withoutColumns(resolved batch.Object, drop []string) batch.Object {
	out := make(batch.Object, 0, len(resolved))
	for _, f := range resolved {
		dropped := false
		for _, d := range drop {
			if f.Column == d {
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, f)
		}
	}
	return out
}

// withIdentifier returns the identifier fields followed by all non-identifier
// fields of resolved.
func withIdentifier(resolved batch.Object, idColumns []string, id batch.Value) (batch.Object, error) {
	out := make(batch.Object, 0, len(resolved)+len(idColumns))
	if len(idColumns) == 1 {
		out = append(out, batch.Field{Column: idColumns[0], Value: id})
	} else {
		composite, ok := id.(batch.Object)
		if !ok {
			return nil, fmt.Errorf("composite identifier expected for columns %v, got %T", idColumns, id)
		}
		for _, col := range idColumns {
			v, ok := composite.Get(col)
			if !ok {
				return nil, fmt.Errorf("composite identifier missing column %q", col)
			}
			out = append(out, batch.Field{Column: col, Value: v})
		}
	}
	return append(out, withoutColumns(resolved, idColumns)...), nil
}

// identifierArgs converts an identifier (scalar or composite) to bind
// arguments in idColumns order.
func identifierArgs(id batch.Value, idColumns []string) ([]any, error) {
	if len(idColumns) == 1 {
		arg, err := batch.BindArg(id)
		if err != nil {
			return nil, err
		}
		return []any{arg}, nil
	}
	composite, ok := id.(batch.Object)
	if !ok {
		return nil, fmt.Errorf("composite identifier expected for columns %v, got %T", idColumns, id)
	}
	args := make([]any, len(idColumns))
	for i, col := range idColumns {
		v, ok := composite.Get(col)
		if !ok {
			return nil, fmt.Errorf("composite identifier missing column %q", col)
		}
		arg, err := batch.BindArg(v)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}
