package batch

// LocalRef points at another record in the same (or an earlier) batch by the
// caller's local id. It resolves to whatever identifier the engine registered
// when that record was written - which requires the referenced record to have
// been declared, and therefore processed, first.
type LocalRef struct {
	Table string
	ID    string
}

func (LocalRef) value() {}

// DBRef points at a pre-existing row, resolved by an equality-predicate
// lookup: MatchColumns[i] = MatchValues[i] for every i. Match values may
// themselves be DBRefs; nested references are resolved before the outer
// lookup runs. IDColumns names the column(s) whose value the reference
// resolves to - one column yields a scalar, several yield a composite Object.
type DBRef struct {
	Table        string
	MatchColumns []string
	MatchValues  []Value
	IDColumns    []string
}

func (DBRef) value() {}
