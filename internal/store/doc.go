// Package store provides the SQLite-backed Runner used by the insertion
// engine. It owns connection configuration (WAL mode, busy timeout, single
// writer) and translates database/sql results into the engine's
// statement/parameter/result contract.
package store
