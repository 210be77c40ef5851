package elem

import "fmt"

// Op is the operator tag of an Expr or Unary node.
type Op int

const (
	_ Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpMin
	OpMax
	OpLt
	OpLte
	OpGt
	OpGte
	OpEq
	OpNeq
	OpShl
	OpShr
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpCast
	OpNot
	OpBitNot

	opCount
)

type opInfo struct {
	name   string
	symbol string
	unary  bool
	prefix bool // rendered as name(lhs, rhs)
}

var opTable = [opCount]opInfo{
	OpAdd:    {name: "add", symbol: "+"},
	OpSub:    {name: "sub", symbol: "-"},
	OpMul:    {name: "mul", symbol: "*"},
	OpDiv:    {name: "div", symbol: "/"},
	OpMod:    {name: "mod", symbol: "%"},
	OpExp:    {name: "exp", symbol: "**"},
	OpMin:    {name: "min", prefix: true},
	OpMax:    {name: "max", prefix: true},
	OpLt:     {name: "lt", symbol: "<"},
	OpLte:    {name: "lte", symbol: "<="},
	OpGt:     {name: "gt", symbol: ">"},
	OpGte:    {name: "gte", symbol: ">="},
	OpEq:     {name: "eq", symbol: "=="},
	OpNeq:    {name: "neq", symbol: "!="},
	OpShl:    {name: "shl", symbol: "<<"},
	OpShr:    {name: "shr", symbol: ">>"},
	OpAnd:    {name: "and", symbol: "&&"},
	OpOr:     {name: "or", symbol: "||"},
	OpBitAnd: {name: "bitand", symbol: "&"},
	OpBitOr:  {name: "bitor", symbol: "|"},
	OpBitXor: {name: "bitxor", symbol: "^"},
	OpCast:   {name: "cast", prefix: true},
	OpNot:    {name: "not", symbol: "!", unary: true},
	OpBitNot: {name: "bitnot", symbol: "~", unary: true},
}

// Valid reports whether op is a member of the enumeration.
func (op Op) Valid() bool {
	return op > 0 && op < opCount
}

// IsUnary reports whether op takes a single operand.
func (op Op) IsUnary() bool {
	return op.Valid() && opTable[op].unary
}

// Symbol is the infix or prefix symbol used when rendering a tree.
func (op Op) Symbol() string {
	if !op.Valid() {
		return "?"
	}
	if opTable[op].symbol == "" {
		return opTable[op].name
	}
	return opTable[op].symbol
}

func (op Op) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opTable[op].name
}

// Ops returns every operator in enumeration order.
func Ops() []Op {
	out := make([]Op, 0, opCount-1)
	for op := Op(1); op < opCount; op++ {
		out = append(out, op)
	}
	return out
}

// ParseOp looks an operator up by its name ("add", "min", "not", ...).
func ParseOp(name string) (Op, error) {
	for op := Op(1); op < opCount; op++ {
		if opTable[op].name == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", name)
}
