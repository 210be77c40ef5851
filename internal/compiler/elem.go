package compiler

import (
	"fmt"
	"math/big"

	"cuelang.org/go/cue"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
)

// Resolver maps a variable name to its id.
type Resolver func(name string) (elem.VarID, bool)

// ParseElem reads one range element.
//
// Accepted shapes:
//
//	5, -3, true, "uint8:7"             literal shorthand (see ParseLiteral)
//	null, {"null": true}               the null element
//	{lit: ..., loc?: {...}}            literal with an optional location
//	{ref: "x", side: "min"|"max"}      bound of a variable
//	{op: "add", lhs: ..., rhs: ...}    binary expression
//	{op: "not", operand: ...}          unary expression
//
// Any literal struct form accepted by ParseLiteral is also an element.
func ParseElem(v cue.Value, resolve Resolver) (elem.Elem, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return elem.Null{}, nil
	case cue.IntKind, cue.BoolKind, cue.StringKind, cue.ListKind:
		lit, err := ParseLiteral(v)
		if err != nil {
			return nil, err
		}
		return elem.Lit(lit), nil
	case cue.StructKind:
	default:
		return nil, &CompileError{Message: fmt.Sprintf("unsupported element kind %s", v.IncompleteKind()), Code: ErrInvalidElem, Pos: v.Pos()}
	}

	var loc *elem.Loc
	if locVal := lookup(v, "loc"); locVal.Exists() {
		l, err := parseLoc(locVal)
		if err != nil {
			return nil, withField(err, "loc")
		}
		loc = &l
	}

	switch {
	case lookup(v, "null").Exists():
		return elem.Null{}, nil

	case lookup(v, "ref").Exists():
		return parseRef(v, loc, resolve)

	case lookup(v, "op").Exists():
		return parseOp(v, resolve)

	case lookup(v, "lit").Exists():
		lit, err := ParseLiteral(lookup(v, "lit"))
		if err != nil {
			return nil, withField(err, "lit")
		}
		if loc != nil {
			return elem.LitAt(lit, *loc), nil
		}
		return elem.Lit(lit), nil
	}

	lit, err := ParseLiteral(v)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		return elem.LitAt(lit, *loc), nil
	}
	return elem.Lit(lit), nil
}

func parseRef(v cue.Value, loc *elem.Loc, resolve Resolver) (elem.Elem, error) {
	name, err := lookup(v, "ref").String()
	if err != nil {
		return nil, &CompileError{Field: "ref", Message: "must be a variable name", Code: ErrInvalidElem, Pos: v.Pos()}
	}
	sideVal := lookup(v, "side")
	if !sideVal.Exists() {
		return nil, &CompileError{Field: "side", Message: "reference needs a side", Code: ErrInvalidElem, Pos: v.Pos()}
	}
	sideName, err := sideVal.String()
	if err != nil {
		return nil, &CompileError{Field: "side", Message: "must be a string", Code: ErrInvalidElem, Pos: sideVal.Pos()}
	}
	side, err := elem.ParseSide(sideName)
	if err != nil {
		return nil, &CompileError{Field: "side", Message: err.Error(), Code: ErrInvalidElem, Pos: sideVal.Pos()}
	}
	id, ok := resolve(name)
	if !ok {
		return nil, &CompileError{Field: "ref", Message: fmt.Sprintf("unknown variable %q", name), Code: ErrUnknownVar, Pos: v.Pos()}
	}
	if loc != nil {
		return elem.RefAt(id, side, *loc), nil
	}
	return elem.Ref(id, side), nil
}

func parseOp(v cue.Value, resolve Resolver) (elem.Elem, error) {
	opVal := lookup(v, "op")
	name, err := opVal.String()
	if err != nil {
		return nil, &CompileError{Field: "op", Message: "must be an operator name", Code: ErrInvalidElem, Pos: opVal.Pos()}
	}
	op, err := elem.ParseOp(name)
	if err != nil {
		return nil, &CompileError{Field: "op", Message: err.Error(), Code: ErrUnknownOp, Pos: opVal.Pos()}
	}

	if op.IsUnary() {
		if lookup(v, "lhs").Exists() || lookup(v, "rhs").Exists() {
			return nil, &CompileError{Field: "op", Message: fmt.Sprintf("%s is unary and takes an operand", name), Code: ErrInvalidElem, Pos: v.Pos()}
		}
		operand, err := requiredElem(v, "operand", resolve)
		if err != nil {
			return nil, err
		}
		return elem.NewUnary(op, operand), nil
	}

	if lookup(v, "operand").Exists() {
		return nil, &CompileError{Field: "op", Message: fmt.Sprintf("%s is binary and takes lhs and rhs", name), Code: ErrInvalidElem, Pos: v.Pos()}
	}
	lhs, err := requiredElem(v, "lhs", resolve)
	if err != nil {
		return nil, err
	}
	rhs, err := requiredElem(v, "rhs", resolve)
	if err != nil {
		return nil, err
	}
	return elem.NewExpr(lhs, op, rhs), nil
}

func requiredElem(v cue.Value, key string, resolve Resolver) (elem.Elem, error) {
	f := lookup(v, key)
	if !f.Exists() {
		return nil, &CompileError{Field: key, Message: "missing", Code: ErrInvalidElem, Pos: v.Pos()}
	}
	e, err := ParseElem(f, resolve)
	if err != nil {
		return nil, withField(err, key)
	}
	return e, nil
}

// ParseLiteral reads a concrete value.
//
// Shorthands: an integer is a uint256 (int256 when negative), a bool is a
// bool, a string goes through concrete.Parse ("uint8:7", "address:0x..."),
// and a list is an array of literals.
//
// Struct forms:
//
//	{uint: 7, width?: 8}      {"int": -3, width?: 16}
//	{"bool": true}            {address: "0x<40 hex>"}
//	{"bytes": "0x6162"}       {fixed: "0x6162", size?: 4}
//	{"string": "ab"}          {array: [...]}
//
// Out-of-range integers are rejected rather than wrapped.
func ParseLiteral(v cue.Value) (concrete.Value, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int(nil)
		if err != nil {
			return nil, literalError(v, err)
		}
		if n.Sign() < 0 {
			return parseLit(v, "int256:"+n.String())
		}
		return parseLit(v, "uint256:"+n.String())

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, literalError(v, err)
		}
		return concrete.Bool(b), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, literalError(v, err)
		}
		return parseLit(v, s)

	case cue.ListKind:
		return parseArrayLit(v)

	case cue.StructKind:
		return parseStructLit(v)
	}
	return nil, &CompileError{Message: fmt.Sprintf("unsupported literal kind %s", v.IncompleteKind()), Code: ErrInvalidLiteral, Pos: v.Pos()}
}

func parseStructLit(v cue.Value) (concrete.Value, error) {
	if f := lookup(v, "uint"); f.Exists() {
		return parseIntLit(v, f, "uint")
	}
	if f := lookup(v, "int"); f.Exists() {
		return parseIntLit(v, f, "int")
	}
	if f := lookup(v, "bool"); f.Exists() {
		b, err := f.Bool()
		if err != nil {
			return nil, literalError(f, err)
		}
		return concrete.Bool(b), nil
	}
	if f := lookup(v, "address"); f.Exists() {
		return parseStringLit(f, "address:")
	}
	if f := lookup(v, "bytes"); f.Exists() {
		return parseStringLit(f, "bytes:")
	}
	if f := lookup(v, "fixed"); f.Exists() {
		return parseFixedLit(v, f)
	}
	if f := lookup(v, "string"); f.Exists() {
		s, err := f.String()
		if err != nil {
			return nil, literalError(f, err)
		}
		return concrete.String(s), nil
	}
	if f := lookup(v, "array"); f.Exists() {
		return parseArrayLit(f)
	}
	return nil, &CompileError{Message: "struct is neither an element nor a literal", Code: ErrInvalidElem, Pos: v.Pos()}
}

func parseIntLit(v, f cue.Value, kind string) (concrete.Value, error) {
	n, err := f.Int(nil)
	if err != nil {
		return nil, literalError(f, err)
	}
	width := int64(concrete.MaxWidth)
	if w := lookup(v, "width"); w.Exists() {
		width, err = w.Int64()
		if err != nil {
			return nil, literalError(w, err)
		}
	}
	return parseLit(f, fmt.Sprintf("%s%d:%s", kind, width, n.String()))
}

func parseStringLit(f cue.Value, prefix string) (concrete.Value, error) {
	s, err := f.String()
	if err != nil {
		return nil, literalError(f, err)
	}
	return parseLit(f, prefix+s)
}

func parseFixedLit(v, f cue.Value) (concrete.Value, error) {
	s, err := f.String()
	if err != nil {
		return nil, literalError(f, err)
	}
	raw, err := parseLit(f, "bytes:"+s)
	if err != nil {
		return nil, err
	}
	size := int64(len(raw.(concrete.DynBytes)))
	if sz := lookup(v, "size"); sz.Exists() {
		size, err = sz.Int64()
		if err != nil {
			return nil, literalError(sz, err)
		}
	}
	return parseLit(f, fmt.Sprintf("bytes%d:%s", size, s))
}

func parseArrayLit(v cue.Value) (concrete.Value, error) {
	iter, err := v.List()
	if err != nil {
		return nil, literalError(v, err)
	}
	out := concrete.Array{}
	for i := 0; iter.Next(); i++ {
		item, err := ParseLiteral(iter.Value())
		if err != nil {
			return nil, withField(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, item)
	}
	return out, nil
}

func parseLit(v cue.Value, s string) (concrete.Value, error) {
	lit, err := concrete.Parse(s)
	if err != nil {
		return nil, literalError(v, err)
	}
	return lit, nil
}

func literalError(v cue.Value, err error) error {
	return &CompileError{Message: err.Error(), Code: ErrInvalidLiteral, Pos: v.Pos()}
}

// bigOf returns the integer payload of a numeric literal.
func bigOf(v concrete.Value) (*big.Int, bool) {
	switch x := v.(type) {
	case concrete.Uint:
		return x.Val, true
	case concrete.Int:
		return x.Val, true
	}
	return nil, false
}
