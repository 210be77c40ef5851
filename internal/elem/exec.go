package elem

import "github.com/shekhirin/pyrometer/internal/concrete"

// Mode selects how Dynamic leaves are reduced.
type Mode int

const (
	// ModeEval resolves every reference the graph can resolve.
	ModeEval Mode = iota
	// ModeSimplify keeps references to symbolic variables.
	ModeSimplify
)

func (m Mode) String() string {
	if m == ModeSimplify {
		return "simplify"
	}
	return "eval"
}

// ParseMode accepts "eval" and "simplify".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "eval":
		return ModeEval, true
	case "simplify":
		return ModeSimplify, true
	default:
		return ModeEval, false
	}
}

// Eval reduces e as far as the graph allows. The input tree is not modified.
func Eval(e Elem, a Analyzer) Elem {
	return Reduce(e, a, ModeEval)
}

// Simplify reduces e but leaves references to symbolic variables in place.
func Simplify(e Elem, a Analyzer) Elem {
	return Reduce(e, a, ModeSimplify)
}

// Reduce is the walker shared by Eval and Simplify.
func Reduce(e Elem, a Analyzer, mode Mode) Elem {
	switch n := e.(type) {
	case *Dynamic:
		return n.resolve(a, mode)
	case Concrete:
		return n
	case *Expr:
		return n.ExecOp(a, mode)
	case *Unary:
		return n.ExecOp(a, mode)
	case Null:
		return n
	default:
		panic(invariantf(ErrCodeUnknownElem, 0, "cannot reduce %T", e))
	}
}

func (d *Dynamic) resolve(a Analyzer, mode Mode) Elem {
	if mode == ModeSimplify && a.IsSymbolic(d.ID) {
		return d.clone()
	}
	info, ok := a.Var(d.ID)
	if !ok {
		return d.clone()
	}
	switch t := info.Type.(type) {
	case BuiltinType:
		if t.Range == nil {
			return d.clone()
		}
		bound := t.Range.Side(d.Side)
		if bound == nil {
			return d.clone()
		}
		// A non-symbolic variable's bound is always fully evaluated, in both
		// modes.
		return Eval(bound, a)
	case ConcreteType:
		loc := ImplicitLoc
		if info.Loc != nil {
			loc = *info.Loc
		}
		return Concrete{Val: t.Value, Loc: loc}
	default:
		return d.clone()
	}
}

// ExecOp reduces both operands, then asks the operator kernels for a literal
// result. When the kernels cannot compute one it returns a copy of x.
//
// A binary node carrying a unary operator is accepted only with a Null right
// operand and is reduced as the equivalent Unary node.
func (x *Expr) ExecOp(a Analyzer, mode Mode) Elem {
	if !x.Op.Valid() {
		panic(invariantf(ErrCodeUnknownOp, x.Op, "unknown operator in binary node"))
	}
	if x.Op.IsUnary() {
		if !IsNull(x.Rhs) {
			panic(invariantf(ErrCodeMalformedUnary, x.Op, "unary operator with non-empty right operand %s", x.Rhs))
		}
		operand := Reduce(x.Lhs, a, mode)
		if out, ok := a.Unary(x.Op, operand); ok {
			return out
		}
		return x.Clone()
	}

	lhs := Reduce(x.Lhs, a, mode)
	rhs := Reduce(x.Rhs, a, mode)
	if out, ok := a.Binary(x.Op, lhs, rhs); ok {
		return out
	}
	return x.Clone()
}

// ExecOp reduces the operand, then asks the operator kernels for a literal
// result. When the kernels cannot compute one it returns a copy of u.
func (u *Unary) ExecOp(a Analyzer, mode Mode) Elem {
	if !u.Op.Valid() {
		panic(invariantf(ErrCodeUnknownOp, u.Op, "unknown operator in unary node"))
	}
	if !u.Op.IsUnary() {
		panic(invariantf(ErrCodeMalformedUnary, u.Op, "binary operator in unary node"))
	}
	operand := Reduce(u.Operand, a, mode)
	if out, ok := a.Unary(u.Op, operand); ok {
		return out
	}
	return u.Clone()
}

// RangeEq evaluates both elements and reports whether they reduce to equal
// literals. It is false whenever either side stays symbolic.
func RangeEq(lhs, rhs Elem, a Analyzer) bool {
	l, ok := AsConcrete(Eval(lhs, a))
	if !ok {
		return false
	}
	r, ok := AsConcrete(Eval(rhs, a))
	if !ok {
		return false
	}
	return concrete.Equal(l.Val, r.Val)
}

// RangeOrd orders two elements that are already literals. It does not
// evaluate: any non-literal operand yields false.
func RangeOrd(lhs, rhs Elem) (int, bool) {
	l, ok := AsConcrete(lhs)
	if !ok {
		return 0, false
	}
	r, ok := AsConcrete(rhs)
	if !ok {
		return 0, false
	}
	return concrete.Compare(l.Val, r.Val)
}
