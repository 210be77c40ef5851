package elem

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/concrete"
)

// DomainElem is the hash domain for element identities.
const DomainElem = "pyrometer/elem/v1"

// ToJSON converts e to its generic JSON shape:
//
//	{"ref":3,"side":"range_max","loc":{...}}
//	{"lit":{"kind":"uint","width":256,"value":"5"},"loc":{...}}
//	{"op":"add","lhs":...,"rhs":...}
//	{"op":"not","operand":...}
//	{"op":"not","lhs":...,"rhs":{"null":true}}
//	{"null":true}
//
// Implicit locations are omitted. withLoc=false drops every location, which
// gives the location-free form used for hashing.
func ToJSON(e Elem, withLoc bool) map[string]any {
	switch n := e.(type) {
	case *Dynamic:
		out := map[string]any{"ref": int64(n.ID), "side": n.Side.String()}
		addLoc(out, n.Loc, withLoc)
		return out
	case Concrete:
		if n.Val == nil {
			return map[string]any{"null": true}
		}
		out := map[string]any{"lit": concrete.ToJSON(n.Val)}
		addLoc(out, n.Loc, withLoc)
		return out
	case *Expr:
		return map[string]any{"op": n.Op.String(), "lhs": ToJSON(n.Lhs, withLoc), "rhs": ToJSON(n.Rhs, withLoc)}
	case *Unary:
		return map[string]any{"op": n.Op.String(), "operand": ToJSON(n.Operand, withLoc)}
	default:
		return map[string]any{"null": true}
	}
}

func addLoc(out map[string]any, loc Loc, withLoc bool) {
	if !withLoc || loc.Implicit {
		return
	}
	out["loc"] = map[string]any{"file": int64(loc.File), "start": int64(loc.Start), "end": int64(loc.End)}
}

// FromJSON is the inverse of ToJSON.
func FromJSON(raw any) (Elem, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("element must be an object, got %T", raw)
	}

	switch {
	case obj["null"] != nil:
		return Null{}, nil

	case obj["ref"] != nil:
		id, err := concrete.JSONInt(obj["ref"])
		if err != nil {
			return nil, fmt.Errorf("ref: %w", err)
		}
		if id < 0 || id > int64(^uint32(0)) {
			return nil, fmt.Errorf("ref %d out of range", id)
		}
		sideName, _ := obj["side"].(string)
		side, err := ParseSide(sideName)
		if err != nil {
			return nil, err
		}
		loc, err := locFromJSON(obj["loc"])
		if err != nil {
			return nil, err
		}
		return &Dynamic{ID: VarID(id), Side: side, Loc: loc}, nil

	case obj["lit"] != nil:
		v, err := concrete.FromJSON(obj["lit"])
		if err != nil {
			return nil, fmt.Errorf("lit: %w", err)
		}
		loc, err := locFromJSON(obj["loc"])
		if err != nil {
			return nil, err
		}
		return Concrete{Val: v, Loc: loc}, nil

	case obj["op"] != nil:
		name, _ := obj["op"].(string)
		op, err := ParseOp(name)
		if err != nil {
			return nil, err
		}
		if op.IsUnary() {
			return unaryFromJSON(op, obj)
		}
		lhs, err := FromJSON(obj["lhs"])
		if err != nil {
			return nil, fmt.Errorf("%s lhs: %w", op, err)
		}
		rhs, err := FromJSON(obj["rhs"])
		if err != nil {
			return nil, fmt.Errorf("%s rhs: %w", op, err)
		}
		return &Expr{Lhs: lhs, Op: op, Rhs: rhs}, nil

	default:
		return nil, fmt.Errorf("element has none of ref, lit, op, null")
	}
}

// unaryFromJSON decodes a unary node. The binary form, with the operand in
// lhs and a null rhs, is kept as an *Expr so that it hashes and reduces the
// same way after a round trip.
func unaryFromJSON(op Op, obj map[string]any) (Elem, error) {
	if obj["operand"] == nil && obj["lhs"] != nil {
		lhs, err := FromJSON(obj["lhs"])
		if err != nil {
			return nil, fmt.Errorf("%s lhs: %w", op, err)
		}
		rhs, err := FromJSON(obj["rhs"])
		if err != nil {
			return nil, fmt.Errorf("%s rhs: %w", op, err)
		}
		if !IsNull(rhs) {
			return nil, fmt.Errorf("%s: unary operator with non-empty right operand", op)
		}
		return &Expr{Lhs: lhs, Op: op, Rhs: Null{}}, nil
	}
	operand, err := FromJSON(obj["operand"])
	if err != nil {
		return nil, fmt.Errorf("%s operand: %w", op, err)
	}
	return &Unary{Op: op, Operand: operand}, nil
}

func locFromJSON(raw any) (Loc, error) {
	if raw == nil {
		return ImplicitLoc, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Loc{}, fmt.Errorf("loc must be an object, got %T", raw)
	}
	var out [3]int64
	for i, key := range []string{"file", "start", "end"} {
		n, err := concrete.JSONInt(obj[key])
		if err != nil {
			return Loc{}, fmt.Errorf("loc.%s: %w", key, err)
		}
		out[i] = n
	}
	return Loc{File: int(out[0]), Start: int(out[1]), End: int(out[2])}, nil
}

// Marshal encodes e as canonical JSON, locations included.
func Marshal(e Elem) ([]byte, error) {
	return concrete.MarshalCanonical(ToJSON(e, true))
}

// Unmarshal decodes the output of Marshal.
func Unmarshal(data []byte) (Elem, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	return FromJSON(raw)
}

// Hash returns the content-addressed identity of e. Locations do not
// contribute, so the same expression read from two places hashes equally.
func Hash(e Elem) (string, error) {
	data, err := concrete.MarshalCanonical(ToJSON(e, false))
	if err != nil {
		return "", fmt.Errorf("hash element: %w", err)
	}
	return concrete.HashWithDomain(DomainElem, data), nil
}

// MustHash is Hash for trees known to be well formed.
func MustHash(e Elem) string {
	h, err := Hash(e)
	if err != nil {
		panic(err)
	}
	return h
}
