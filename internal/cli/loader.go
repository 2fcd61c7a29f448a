package cli

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/refill/internal/batch"
)

// Batch files are YAML. Tables and records are sequences, so their
// declaration order - which the engine treats as dependency order - survives
// parsing. Record values are decoded from raw yaml nodes rather than Go maps
// so field order survives too.
//
// Reference values use tagged single-key mappings:
//
//	contextId: {ref: {table: contexts, id: dev}}
//	companyId: {lookup: {table: companies, match: {name: Acme}, idColumns: [id]}}

type batchFile struct {
	Tables []tableSection `yaml:"tables"`
}

type tableSection struct {
	Table   string          `yaml:"table"`
	Options optionsSection  `yaml:"options"`
	Records []recordSection `yaml:"records"`
}

type optionsSection struct {
	Match      []string `yaml:"match"`
	IDColumns  []string `yaml:"idColumns"`
	Mode       string   `yaml:"mode"`
	GenerateID bool     `yaml:"generateId"`
}

type recordSection struct {
	ID     string    `yaml:"id"`
	Values yaml.Node `yaml:"values"`
}

// ParseBatchFile reads and parses a YAML batch description.
func ParseBatchFile(path string) (batch.ContentBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batch.ContentBatch{}, fmt.Errorf("read batch file: %w", err)
	}
	cb, err := ParseBatch(data)
	if err != nil {
		return batch.ContentBatch{}, fmt.Errorf("%s: %w", path, err)
	}
	return cb, nil
}

// ParseBatch parses a YAML batch description.
func ParseBatch(data []byte) (batch.ContentBatch, error) {
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return batch.ContentBatch{}, fmt.Errorf("parse batch file: %w", err)
	}
	if len(bf.Tables) == 0 {
		return batch.ContentBatch{}, fmt.Errorf("batch file declares no tables")
	}

	cb := batch.ContentBatch{Tables: make([]batch.TableBatch, 0, len(bf.Tables))}
	for ti, ts := range bf.Tables {
		if ts.Table == "" {
			return batch.ContentBatch{}, fmt.Errorf("tables[%d]: missing table name", ti)
		}
		mode, err := batch.ParseMode(ts.Options.Mode)
		if err != nil {
			return batch.ContentBatch{}, fmt.Errorf("table %s: %w", ts.Table, err)
		}
		tb := batch.TableBatch{
			Table: ts.Table,
			Options: batch.TableOptions{
				MatchColumns: ts.Options.Match,
				IDColumns:    ts.Options.IDColumns,
				Mode:         mode,
				GenerateID:   ts.Options.GenerateID,
			},
			Records: make([]batch.Record, 0, len(ts.Records)),
		}
		for ri, rs := range ts.Records {
			if rs.ID == "" {
				return batch.ContentBatch{}, fmt.Errorf("table %s: records[%d]: missing id", ts.Table, ri)
			}
			params, err := objectFromNode(&rs.Values)
			if err != nil {
				return batch.ContentBatch{}, fmt.Errorf("table %s: record %s: %w", ts.Table, rs.ID, err)
			}
			tb.Records = append(tb.Records, batch.Record{LocalID: rs.ID, Params: params})
		}
		cb.Tables = append(cb.Tables, tb)
	}
	return cb, nil
}

// objectFromNode converts a YAML mapping node to an ordered Object.
func objectFromNode(n *yaml.Node) (batch.Object, error) {
	n = resolveAlias(n)
	if n.Kind == 0 || n.Tag == "!!null" {
		return batch.Object{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping, got %s", n.Line, nodeKind(n))
	}
	obj := make(batch.Object, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		v, err := valueFromNode(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key.Value, err)
		}
		obj = append(obj, batch.Field{Column: key.Value, Value: v})
	}
	return obj, nil
}

// valueFromNode converts a YAML node to a batch Value, recognizing the
// tagged ref/lookup forms.
func valueFromNode(n *yaml.Node) (batch.Value, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarFromNode(n)

	case yaml.SequenceNode:
		arr := make(batch.Array, 0, len(n.Content))
		for i, elem := range n.Content {
			v, err := valueFromNode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.MappingNode:
		if len(n.Content) == 2 {
			switch n.Content[0].Value {
			case "ref":
				return localRefFromNode(n.Content[1])
			case "lookup":
				return dbRefFromNode(n.Content[1])
			}
		}
		return objectFromNode(n)

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind", n.Line)
	}
}

func scalarFromNode(n *yaml.Node) (batch.Value, error) {
	switch n.Tag {
	case "!!null":
		return batch.Null{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid bool %q", n.Line, n.Value)
		}
		return batch.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid int %q", n.Line, n.Value)
		}
		return batch.Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid float %q", n.Line, n.Value)
		}
		return batch.Float(f), nil
	default:
		return batch.String(n.Value), nil
	}
}

// localRefFromNode parses {table: ..., id: ...}.
func localRefFromNode(n *yaml.Node) (batch.LocalRef, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return batch.LocalRef{}, fmt.Errorf("line %d: ref must be a mapping with table and id", n.Line)
	}
	var raw struct {
		Table string `yaml:"table"`
		ID    string `yaml:"id"`
	}
	if err := n.Decode(&raw); err != nil {
		return batch.LocalRef{}, fmt.Errorf("line %d: %w", n.Line, err)
	}
	if raw.Table == "" || raw.ID == "" {
		return batch.LocalRef{}, fmt.Errorf("line %d: ref requires table and id", n.Line)
	}
	return batch.LocalRef{Table: raw.Table, ID: raw.ID}, nil
}

// dbRefFromNode parses {table: ..., match: {...}, idColumns: [...]}.
// The match mapping's declaration order becomes the column/value order.
func dbRefFromNode(n *yaml.Node) (batch.DBRef, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return batch.DBRef{}, fmt.Errorf("line %d: lookup must be a mapping", n.Line)
	}
	ref := batch.DBRef{}
	var matchNode *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "table":
			ref.Table = val.Value
		case "match":
			matchNode = val
		case "idColumns":
			if err := val.Decode(&ref.IDColumns); err != nil {
				return batch.DBRef{}, fmt.Errorf("line %d: idColumns: %w", val.Line, err)
			}
		default:
			return batch.DBRef{}, fmt.Errorf("line %d: unknown lookup field %q", key.Line, key.Value)
		}
	}
	if ref.Table == "" {
		return batch.DBRef{}, fmt.Errorf("line %d: lookup requires a table", n.Line)
	}
	if matchNode == nil {
		return batch.DBRef{}, fmt.Errorf("line %d: lookup requires match values", n.Line)
	}
	matchNode = resolveAlias(matchNode)
	if matchNode.Kind != yaml.MappingNode {
		return batch.DBRef{}, fmt.Errorf("line %d: match must be a mapping", matchNode.Line)
	}
	for i := 0; i+1 < len(matchNode.Content); i += 2 {
		key := matchNode.Content[i]
		v, err := valueFromNode(matchNode.Content[i+1])
		if err != nil {
			return batch.DBRef{}, fmt.Errorf("match %q: %w", key.Value, err)
		}
		ref.MatchColumns = append(ref.MatchColumns, key.Value)
		ref.MatchValues = append(ref.MatchValues, v)
	}
	if len(ref.MatchColumns) == 0 {
		return batch.DBRef{}, fmt.Errorf("line %d: lookup match is empty", matchNode.Line)
	}
	return ref, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
