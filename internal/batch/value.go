package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a sealed interface representing a record field value.
// Only Null, String, Int, Float, Bool, Array, Object, LocalRef, and DBRef
// implement it. Resolution logic type-switches on the concrete variant;
// there is no runtime reflection.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an absent value. Using an explicit type (rather than a nil
// Value) keeps every field of a resolved record a valid member of the union.
type Null struct{}

func (Null) value() {}

// String represents a text value.
type String string

func (String) value() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a floating-point value.
type Float float64

func (Float) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Array represents an ordered sequence of values. Arrays may contain
// references at any depth; they are resolved element by element.
type Array []Value

func (Array) value() {}

// Field is a single column/value pair inside an Object.
type Field struct {
	Column string
	Value  Value
}

// Object represents a nested record value as an explicitly ordered sequence
// of fields. Field order is the caller's declaration order; it governs
// traversal (and therefore diagnostic ordering) during resolution.
//
// An Object is also the shape of a record's top-level params and of a
// composite identifier (one field per identifier column).
type Object []Field

func (Object) value() {}

// Get returns the value for a column and whether it is present.
func (o Object) Get(column string) (Value, bool) {
	for _, f := range o {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for a column in place, or appends a new field if the
// column is not present. Returns the updated object.
func (o Object) Set(column string, v Value) Object {
	for i, f := range o {
		if f.Column == column {
			o[i].Value = v
			return o
		}
	}
	return append(o, Field{Column: column, Value: v})
}

// Columns returns the column names in declaration order.
func (o Object) Columns() []string {
	cols := make([]string, len(o))
	for i, f := range o {
		cols[i] = f.Column
	}
	return cols
}

// MarshalJSON implements json.Marshaler for Object, preserving field order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f.Column)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", f.Column, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for column %q: %w", f.Column, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes. Reference values marshal to
// their tagged object form so diagnostics and CLI output can show them;
// use canonical marshaling (MarshalCanonical) for values bound to the store.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil Value")
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		return marshalArray(val)
	case Object:
		return val.MarshalJSON()
	case LocalRef:
		return json.Marshal(map[string]any{"ref": map[string]string{"table": val.Table, "id": val.ID}})
	case DBRef:
		return marshalDBRef(val)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalDBRef(ref DBRef) ([]byte, error) {
	match := make([]json.RawMessage, len(ref.MatchValues))
	for i, v := range ref.MatchValues {
		b, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("lookup match value %d: %w", i, err)
		}
		match[i] = b
	}
	return json.Marshal(map[string]any{"lookup": map[string]any{
		"table":        ref.Table,
		"matchColumns": ref.MatchColumns,
		"matchValues":  match,
		"idColumns":    ref.IDColumns,
	}})
}

// FromGo converts a plain Go value (as produced by YAML or JSON decoding)
// into a Value. Maps lose their declaration order here; order-sensitive
// callers should construct Objects directly.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case Value:
		return val, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, 0, len(val))
		for k, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, Field{Column: k, Value: ev})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
