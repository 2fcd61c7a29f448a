package batch

import "fmt"

// BindArg converts a fully-resolved Value into a driver-level bind argument.
// Scalars map to their Go equivalents; containers are serialized to canonical
// JSON so a nested structure occupies a single (JSON) column. Reference
// values are an internal invariant violation: the resolver replaces every
// reference before the write path binds anything.
func BindArg(v Value) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil Value")
	case Null:
		return nil, nil
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Array, Object:
		b, err := MarshalCanonical(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case LocalRef:
		return nil, fmt.Errorf("unresolved local reference to %s/%s reached bind", val.Table, val.ID)
	case DBRef:
		return nil, fmt.Errorf("unresolved database reference to %s reached bind", val.Table)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// BindArgs converts an ordered Object to parallel column and argument slices
// in declaration order, ready for a positional-placeholder statement.
func BindArgs(o Object) ([]string, []any, error) {
	cols := make([]string, 0, len(o))
	args := make([]any, 0, len(o))
	for _, f := range o {
		arg, err := BindArg(f.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", f.Column, err)
		}
		cols = append(cols, f.Column)
		args = append(args, arg)
	}
	return cols, args, nil
}

// ScalarFromStore converts a raw value scanned from the store into a Value.
// Drivers hand back a small set of Go types; anything unrecognized is an
// error rather than a silent coercion.
func ScalarFromStore(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(val), nil
	default:
		return nil, fmt.Errorf("unsupported store value type: %T", v)
	}
}
