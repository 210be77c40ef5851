package concrete

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"unicode/utf16"
)

// ToJSON converts a Value to its JSON object form:
//
//	{"kind":"uint","width":256,"value":"12"}
//	{"kind":"fixed","size":2,"value":"0x6162"}
//	{"kind":"array","value":[...]}
//
// Integers are decimal strings so that 256-bit values never pass through float64.
func ToJSON(v Value) map[string]any {
	switch val := v.(type) {
	case Uint:
		return map[string]any{"kind": "uint", "width": int64(val.Width), "value": val.Val.String()}
	case Int:
		return map[string]any{"kind": "int", "width": int64(val.Width), "value": val.Val.String()}
	case Bool:
		return map[string]any{"kind": "bool", "value": bool(val)}
	case Address:
		return map[string]any{"kind": "address", "value": "0x" + hex.EncodeToString(val[:])}
	case Bytes:
		return map[string]any{"kind": "fixed", "size": int64(val.Size), "value": "0x" + hex.EncodeToString(val.Val[:val.Size])}
	case DynBytes:
		return map[string]any{"kind": "bytes", "value": "0x" + hex.EncodeToString(val)}
	case String:
		return map[string]any{"kind": "string", "value": string(val)}
	case Array:
		elems := make([]any, len(val))
		for i, e := range val {
			elems[i] = ToJSON(e)
		}
		return map[string]any{"kind": "array", "value": elems}
	default:
		panic(fmt.Sprintf("concrete: unknown value type %T", v))
	}
}

// FromJSON is the inverse of ToJSON. It accepts the generic shape produced by
// encoding/json (with or without UseNumber).
func FromJSON(raw any) (Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("literal must be an object, got %T", raw)
	}
	kind, _ := obj["kind"].(string)

	switch kind {
	case "uint", "int":
		width, err := JSONInt(obj["width"])
		if err != nil {
			return nil, fmt.Errorf("%s width: %w", kind, err)
		}
		if width < 0 || width > int64(MaxWidth) || !ValidWidth(uint16(width)) {
			return nil, fmt.Errorf("%s width %d is invalid", kind, width)
		}
		s, _ := obj["value"].(string)
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%s value %q is not a decimal integer", kind, s)
		}
		if kind == "uint" {
			return NewUint(uint16(width), n), nil
		}
		return NewInt(uint16(width), n), nil

	case "bool":
		b, ok := obj["value"].(bool)
		if !ok {
			return nil, fmt.Errorf("bool value must be a boolean")
		}
		return Bool(b), nil

	case "address":
		s, _ := obj["value"].(string)
		raw, err := decodeHex(s)
		if err != nil || len(raw) != 20 {
			return nil, fmt.Errorf("address value %q is invalid", s)
		}
		var a Address
		copy(a[:], raw)
		return a, nil

	case "fixed":
		size, err := JSONInt(obj["size"])
		if err != nil {
			return nil, fmt.Errorf("fixed size: %w", err)
		}
		s, _ := obj["value"].(string)
		raw, err := decodeHex(s)
		if err != nil {
			return nil, fmt.Errorf("fixed value: %w", err)
		}
		if size < 1 || size > 32 || len(raw) > int(size) {
			return nil, fmt.Errorf("fixed value %q does not fit bytes%d", s, size)
		}
		out := Bytes{Size: uint8(size)}
		copy(out.Val[:], raw)
		return out, nil

	case "bytes":
		s, _ := obj["value"].(string)
		raw, err := decodeHex(s)
		if err != nil {
			return nil, fmt.Errorf("bytes value: %w", err)
		}
		return DynBytes(raw), nil

	case "string":
		s, ok := obj["value"].(string)
		if !ok {
			return nil, fmt.Errorf("string value must be a string")
		}
		return String(s), nil

	case "array":
		elems, ok := obj["value"].([]any)
		if !ok {
			return nil, fmt.Errorf("array value must be a list")
		}
		out := make(Array, len(elems))
		for i, e := range elems {
			v, err := FromJSON(e)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown literal kind %q", kind)
	}
}

// JSONInt reads an integer from a decoded JSON number of any representation.
func JSONInt(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// MarshalCanonical produces RFC 8785 style canonical JSON for hashing and
// storage.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Values are passed through ToJSON, so integers are decimal strings
//
// Strings are not Unicode-normalised: two literals that differ only in
// normalisation are different program values.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case Value:
		return MarshalCanonical(ToJSON(val))
	case string:
		return marshalCanonicalString(val)
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		return marshalCanonicalArray(val)
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalCanonicalArray(arr)
	case map[string]any:
		return marshalCanonicalObject(val)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(out), nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, as RFC 8785 requires. An escape preceded by an odd number of
// backslashes is a literal backslash followed by text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			slashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				slashes++
			}
			if slashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysRFC8785 orders strings by UTF-16 code units. Go's native string
// comparison is by UTF-8 bytes, which disagrees outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// MarshalValue is the canonical JSON of a single literal.
func MarshalValue(v Value) ([]byte, error) {
	return MarshalCanonical(ToJSON(v))
}

// UnmarshalValue decodes JSON produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode literal: %w", err)
	}
	return FromJSON(raw)
}
