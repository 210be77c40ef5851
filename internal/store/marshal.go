package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// DomainGraph is the hash domain for snapshot graph identities.
const DomainGraph = "pyrometer/graph/v1"

// typeJSON converts a variable type to its JSON object form:
//
//	{"builtin":"uint8","range":{"min":<elem>,"max":<elem>}}
//	{"concrete":<literal>}
//	{"opaque":"mapping(address => uint256)"}
func typeJSON(t elem.VarType) (map[string]any, error) {
	switch v := t.(type) {
	case elem.BuiltinType:
		out := map[string]any{"builtin": v.Name}
		if v.Range != nil {
			out["range"] = map[string]any{
				"min": elem.ToJSON(v.Range.Min, true),
				"max": elem.ToJSON(v.Range.Max, true),
			}
		}
		return out, nil
	case elem.ConcreteType:
		return map[string]any{"concrete": concrete.ToJSON(v.Value)}, nil
	case elem.OpaqueType:
		return map[string]any{"opaque": v.Name}, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", t)
	}
}

// marshalType converts a variable type to canonical JSON TEXT for storage.
func marshalType(t elem.VarType) (string, error) {
	obj, err := typeJSON(t)
	if err != nil {
		return "", fmt.Errorf("marshal type: %w", err)
	}
	data, err := concrete.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal type: %w", err)
	}
	return string(data), nil
}

// unmarshalType parses the output of marshalType.
func unmarshalType(data string) (elem.VarType, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal type: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unmarshal type: expected object, got %T", raw)
	}

	if name, ok := obj["builtin"].(string); ok {
		bt := elem.BuiltinType{Name: name}
		if r, ok := obj["range"].(map[string]any); ok {
			lo, err := elem.FromJSON(r["min"])
			if err != nil {
				return nil, fmt.Errorf("unmarshal type: range min: %w", err)
			}
			hi, err := elem.FromJSON(r["max"])
			if err != nil {
				return nil, fmt.Errorf("unmarshal type: range max: %w", err)
			}
			bt.Range = &elem.Range{Min: lo, Max: hi}
		}
		return bt, nil
	}
	if lit, ok := obj["concrete"]; ok {
		v, err := concrete.FromJSON(lit)
		if err != nil {
			return nil, fmt.Errorf("unmarshal type: %w", err)
		}
		return elem.ConcreteType{Value: v}, nil
	}
	if name, ok := obj["opaque"].(string); ok {
		return elem.OpaqueType{Name: name}, nil
	}
	return nil, fmt.Errorf("unmarshal type: unrecognised shape %s", data)
}

func locJSON(loc *elem.Loc) map[string]any {
	return map[string]any{"file": int64(loc.File), "start": int64(loc.Start), "end": int64(loc.End)}
}

// marshalLoc stores a nil location as SQL NULL.
func marshalLoc(loc *elem.Loc) (sql.NullString, error) {
	if loc == nil {
		return sql.NullString{}, nil
	}
	data, err := concrete.MarshalCanonical(locJSON(loc))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal loc: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalLoc(data sql.NullString) (*elem.Loc, error) {
	if !data.Valid {
		return nil, nil
	}
	raw, err := decodeJSON(data.String)
	if err != nil {
		return nil, fmt.Errorf("unmarshal loc: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unmarshal loc: expected object, got %T", raw)
	}
	var parts [3]int64
	for i, key := range []string{"file", "start", "end"} {
		if parts[i], err = concrete.JSONInt(obj[key]); err != nil {
			return nil, fmt.Errorf("unmarshal loc %s: %w", key, err)
		}
	}
	return &elem.Loc{File: int(parts[0]), Start: int(parts[1]), End: int(parts[2])}, nil
}

// graphHash is the content identity of a variable list (in id order).
func graphHash(vars []graph.Var) (string, error) {
	items := make([]any, len(vars))
	for i, v := range vars {
		t, err := typeJSON(v.Type)
		if err != nil {
			return "", err
		}
		item := map[string]any{
			"id":       int64(v.ID),
			"name":     v.Name,
			"type":     t,
			"symbolic": v.Symbolic,
		}
		if v.Loc != nil {
			item["loc"] = locJSON(v.Loc)
		}
		items[i] = item
	}
	data, err := concrete.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("hash graph: %w", err)
	}
	return concrete.HashWithDomain(DomainGraph, data), nil
}

// decodeJSON decodes with UseNumber so integer fields keep full precision.
func decodeJSON(data string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
