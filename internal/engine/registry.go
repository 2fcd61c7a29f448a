package engine

import (
	"github.com/roach88/refill/internal/batch"
)

// Registry is the engine's accumulated memory of assigned identifiers:
// (table, local id) -> the identifier the store assigned (or the matcher
// found) when that record was written. It is the sole mechanism by which a
// later record resolves a local reference to an earlier one.
//
// Entries are write-once: the first identifier registered for a pair is
// immutable for the engine instance's lifetime. The registry grows
// monotonically across Insert calls and is never cleared.
//
// The registry is owned by one engine and mutated only by the sequential
// write path, so it carries no lock; an engine instance must not serve
// concurrent Insert calls.
type Registry struct {
	ids map[string]map[string]batch.Value
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]map[string]batch.Value)}
}

// Register stores the identifier for (table, localID) and returns the stored
// value. If the pair is already registered the existing identifier wins and
// is returned unchanged.
func (r *Registry) Register(table, localID string, id batch.Value) batch.Value {
	byID, ok := r.ids[table]
	if !ok {
		byID = make(map[string]batch.Value)
		r.ids[table] = byID
	}
	if existing, ok := byID[localID]; ok {
		return existing
	}
	byID[localID] = id
	return id
}

// Lookup returns the identifier registered for (table, localID).
func (r *Registry) Lookup(table, localID string) (batch.Value, bool) {
	byID, ok := r.ids[table]
	if !ok {
		return nil, false
	}
	id, ok := byID[localID]
	return id, ok
}

// Len returns the total number of registered identifiers.
func (r *Registry) Len() int {
	n := 0
	for _, byID := range r.ids {
		n += len(byID)
	}
	return n
}

// Snapshot returns a copy of the registry contents, table -> local id ->
// identifier. Callers inspect it after a batch to retrieve assigned
// identifiers for use outside the engine.
func (r *Registry) Snapshot() map[string]map[string]batch.Value {
	out := make(map[string]map[string]batch.Value, len(r.ids))
	for table, byID := range r.ids {
		m := make(map[string]batch.Value, len(byID))
		for id, v := range byID {
			m[id] = v
		}
		out[table] = m
	}
	return out
}
