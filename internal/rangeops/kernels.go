// Package rangeops implements the literal operator kernels that range element
// evaluation folds with.
//
// Kernels follow the fixed-width integer semantics of the analyzed language:
// results take the left operand's signedness and the wider of the two widths,
// unsigned results wrap modulo 2^w and signed results wrap in two's complement.
// A kernel reports false instead of failing when an operation cannot be
// computed; evaluation then keeps the unevaluated node.
package rangeops

import (
	"math/big"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
)

// Kernels implements elem.Operators over concrete literals.
type Kernels struct{}

// New returns the default kernel set.
func New() Kernels {
	return Kernels{}
}

var _ elem.Operators = Kernels{}

// Binary computes lhs op rhs. Both operands must be literals. The result
// carries the lhs location, except min and max which keep the location of
// the operand they pick.
func (Kernels) Binary(op elem.Op, lhs, rhs elem.Elem) (elem.Elem, bool) {
	l, ok := elem.AsConcrete(lhs)
	if !ok {
		return nil, false
	}
	r, ok := elem.AsConcrete(rhs)
	if !ok {
		return nil, false
	}

	var (
		out concrete.Value
		ok2 bool
	)
	loc := l.Loc
	switch op {
	case elem.OpAdd, elem.OpSub, elem.OpMul, elem.OpDiv, elem.OpMod, elem.OpExp:
		out, ok2 = arith(op, l.Val, r.Val)
	case elem.OpMin, elem.OpMax:
		var right bool
		out, right, ok2 = minMax(op, l.Val, r.Val)
		if right {
			loc = r.Loc
		}
	case elem.OpLt, elem.OpLte, elem.OpGt, elem.OpGte, elem.OpEq, elem.OpNeq:
		out, ok2 = compare(op, l.Val, r.Val)
	case elem.OpShl, elem.OpShr:
		out, ok2 = shift(op, l.Val, r.Val)
	case elem.OpAnd, elem.OpOr:
		out, ok2 = logic(op, l.Val, r.Val)
	case elem.OpBitAnd, elem.OpBitOr, elem.OpBitXor:
		out, ok2 = bitwise(op, l.Val, r.Val)
	case elem.OpCast:
		out, ok2 = Convert(l.Val, r.Val)
	}
	if !ok2 {
		return nil, false
	}
	return elem.Concrete{Val: out, Loc: loc}, true
}

// Unary computes op x. The operand must be a literal.
func (Kernels) Unary(op elem.Op, operand elem.Elem) (elem.Elem, bool) {
	x, ok := elem.AsConcrete(operand)
	if !ok {
		return nil, false
	}

	var out concrete.Value
	switch op {
	case elem.OpNot:
		b, isBool := x.Val.(concrete.Bool)
		if !isBool {
			return nil, false
		}
		out = !b
	case elem.OpBitNot:
		out, ok = bitNot(x.Val)
		if !ok {
			return nil, false
		}
	default:
		return nil, false
	}
	return elem.Concrete{Val: out, Loc: x.Loc}, true
}

// integer is the signed big.Int view of a Uint or Int.
type integer struct {
	val    *big.Int
	width  uint16
	signed bool
}

func asInteger(v concrete.Value) (integer, bool) {
	switch n := v.(type) {
	case concrete.Uint:
		return integer{val: n.Val, width: n.Width, signed: false}, true
	case concrete.Int:
		return integer{val: n.Val, width: n.Width, signed: true}, true
	default:
		return integer{}, false
	}
}

func makeInteger(x *big.Int, width uint16, signed bool) concrete.Value {
	if signed {
		return concrete.NewInt(width, x)
	}
	return concrete.NewUint(width, x)
}

func arith(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool) {
	l, ok := asInteger(lv)
	if !ok {
		return nil, false
	}
	r, ok := asInteger(rv)
	if !ok {
		return nil, false
	}
	width := max(l.width, r.width)

	z := new(big.Int)
	switch op {
	case elem.OpAdd:
		z.Add(l.val, r.val)
	case elem.OpSub:
		z.Sub(l.val, r.val)
	case elem.OpMul:
		z.Mul(l.val, r.val)
	case elem.OpDiv:
		if r.val.Sign() == 0 {
			return nil, false
		}
		z.Quo(l.val, r.val)
	case elem.OpMod:
		if r.val.Sign() == 0 {
			return nil, false
		}
		z.Rem(l.val, r.val)
	case elem.OpExp:
		if r.val.Sign() < 0 {
			return nil, false
		}
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		z.Exp(l.val, r.val, mod)
	}
	return makeInteger(z, width, l.signed), true
}

// minMax picks one operand. The second result reports that rv was picked;
// ties keep lv.
func minMax(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool, bool) {
	ord, ok := concrete.Compare(lv, rv)
	if !ok {
		return nil, false, false
	}
	right := ord < 0
	if op == elem.OpMin {
		right = ord > 0
	}
	if right {
		return rv, true, true
	}
	return lv, false, true
}

func compare(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool) {
	switch op {
	case elem.OpEq:
		return concrete.Bool(concrete.Equal(lv, rv)), true
	case elem.OpNeq:
		return concrete.Bool(!concrete.Equal(lv, rv)), true
	}

	ord, ok := concrete.Compare(lv, rv)
	if !ok {
		return nil, false
	}
	switch op {
	case elem.OpLt:
		return concrete.Bool(ord < 0), true
	case elem.OpLte:
		return concrete.Bool(ord <= 0), true
	case elem.OpGt:
		return concrete.Bool(ord > 0), true
	default:
		return concrete.Bool(ord >= 0), true
	}
}

func shift(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool) {
	l, ok := asInteger(lv)
	if !ok {
		return nil, false
	}
	amount, ok := concrete.ToUint256(rv)
	if !ok || !concrete.IsNumeric(rv) {
		return nil, false
	}

	if !amount.IsUint64() || amount.Uint64() >= uint64(l.width) {
		if op == elem.OpShr && l.signed && l.val.Sign() < 0 {
			return makeInteger(big.NewInt(-1), l.width, true), true
		}
		return makeInteger(new(big.Int), l.width, l.signed), true
	}

	n := uint(amount.Uint64())
	z := new(big.Int)
	if op == elem.OpShl {
		z.Lsh(l.val, n)
	} else {
		// Rsh on a negative big.Int rounds toward negative infinity, which
		// is an arithmetic shift.
		z.Rsh(l.val, n)
	}
	return makeInteger(z, l.width, l.signed), true
}

func logic(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool) {
	l, ok := lv.(concrete.Bool)
	if !ok {
		return nil, false
	}
	r, ok := rv.(concrete.Bool)
	if !ok {
		return nil, false
	}
	if op == elem.OpAnd {
		return l && r, true
	}
	return l || r, true
}

func bitwise(op elem.Op, lv, rv concrete.Value) (concrete.Value, bool) {
	if lb, ok := lv.(concrete.Bytes); ok {
		rb, ok := rv.(concrete.Bytes)
		if !ok {
			return nil, false
		}
		out := concrete.Bytes{Size: max(lb.Size, rb.Size)}
		for i := range out.Val {
			out.Val[i] = applyByte(op, lb.Val[i], rb.Val[i])
		}
		return out, true
	}

	l, ok := asInteger(lv)
	if !ok {
		return nil, false
	}
	r, ok := asInteger(rv)
	if !ok {
		return nil, false
	}
	width := max(l.width, r.width)
	a := concrete.Reinterpret(l.val, width, false)
	b := concrete.Reinterpret(r.val, width, false)

	z := new(big.Int)
	switch op {
	case elem.OpBitAnd:
		z.And(a, b)
	case elem.OpBitOr:
		z.Or(a, b)
	default:
		z.Xor(a, b)
	}
	return makeInteger(z, width, l.signed), true
}

func applyByte(op elem.Op, a, b byte) byte {
	switch op {
	case elem.OpBitAnd:
		return a & b
	case elem.OpBitOr:
		return a | b
	default:
		return a ^ b
	}
}

func bitNot(v concrete.Value) (concrete.Value, bool) {
	switch n := v.(type) {
	case concrete.Uint:
		return concrete.NewUint(n.Width, new(big.Int).Sub(concrete.MaxUint(n.Width), n.Val)), true
	case concrete.Int:
		z := new(big.Int).Neg(n.Val)
		return concrete.NewInt(n.Width, z.Sub(z, big.NewInt(1))), true
	case concrete.Bytes:
		out := concrete.Bytes{Size: n.Size}
		for i := 0; i < int(n.Size); i++ {
			out.Val[i] = ^n.Val[i]
		}
		return out, true
	default:
		return nil, false
	}
}
