// Package engine implements reference-resolving, dependency-ordered batch
// insertion into a relational store.
//
// A caller submits a content batch (tables, records, fields; all in declared
// order) to Engine.Insert. For each record the engine resolves reference
// fields to concrete identifiers - local references from the identifier
// registry, database references via equality lookups through the Runner -
// optionally checks for an existing row, issues the insert, update, or
// replace, and registers the resulting identifier so later records can
// reference it.
//
// Declaration order is a load-bearing invariant: the engine performs no
// topological sort, so referenced records must be declared before
// referencing ones. There is no batch-wide transaction; a fatal error leaves
// earlier writes committed.
package engine
