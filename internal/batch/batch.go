package batch

import "fmt"

// Mode selects what the engine does when an existing-record match is found.
type Mode uint8

const (
	// ModeInsertOnly writes nothing when a match exists; the matched
	// identifier is still registered under the record's local id.
	ModeInsertOnly Mode = iota
	// ModeUpdate issues an update for all supplied columns, keyed by the
	// matched identifier.
	ModeUpdate
	// ModeReplace issues an idempotent replace-or-overwrite supplying all
	// columns plus the identifier.
	ModeReplace
)

// String returns the mode's batch-file spelling.
func (m Mode) String() string {
	switch m {
	case ModeInsertOnly:
		return "insert"
	case ModeUpdate:
		return "update"
	case ModeReplace:
		return "replace"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode converts a batch-file mode string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "insert":
		return ModeInsertOnly, nil
	case "update":
		return ModeUpdate, nil
	case "replace":
		return ModeReplace, nil
	default:
		return 0, fmt.Errorf("invalid mode %q: must be insert, update, or replace", s)
	}
}

// TableOptions configures existing-record matching and identifier handling
// for one table in a batch.
type TableOptions struct {
	// MatchColumns names the columns used to detect a pre-existing row.
	// Empty means no matching: every record is inserted.
	MatchColumns []string

	// IDColumns names the identifier column(s). One column yields scalar
	// identifiers; several yield composite Object identifiers.
	// Defaults to ["id"].
	IDColumns []string

	// Mode selects insert-only, update, or replace semantics when a match
	// is found. Ignored unless MatchColumns is set.
	Mode Mode

	// GenerateID makes the engine mint an identifier (first id column)
	// before inserting, instead of reading the store-assigned one back.
	// For tables whose key is not store-assigned.
	GenerateID bool
}

// EffectiveIDColumns returns IDColumns or the default ["id"].
func (o TableOptions) EffectiveIDColumns() []string {
	if len(o.IDColumns) == 0 {
		return []string{"id"}
	}
	return o.IDColumns
}

// Record is one record to load: a caller-chosen local id plus its column
// values. The local id keys the assigned identifier in the registry.
type Record struct {
	LocalID string
	Params  Object
}

// TableBatch is the ordered set of records destined for one table.
type TableBatch struct {
	Table   string
	Options TableOptions
	Records []Record
}

// ContentBatch is the full input to one Insert call: tables in declaration
// order, each with its records in declaration order. The engine performs no
// topological sort - callers declare referenced records before referencing
// ones.
type ContentBatch struct {
	Tables []TableBatch
}
