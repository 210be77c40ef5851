package elem

import "github.com/shekhirin/pyrometer/internal/concrete"

// Ref builds a reference to one bound of variable id.
func Ref(id VarID, side Side) *Dynamic {
	return &Dynamic{ID: id, Side: side, Loc: ImplicitLoc}
}

// RefAt is Ref with a source location.
func RefAt(id VarID, side Side, loc Loc) *Dynamic {
	return &Dynamic{ID: id, Side: side, Loc: loc}
}

// Lit wraps a literal value with an implicit location.
func Lit(v concrete.Value) Concrete {
	return Concrete{Val: v, Loc: ImplicitLoc}
}

// LitAt wraps a literal value read from source.
func LitAt(v concrete.Value, loc Loc) Concrete {
	return Concrete{Val: v, Loc: loc}
}

// NewExpr builds a binary node. The node takes ownership of lhs and rhs.
func NewExpr(lhs Elem, op Op, rhs Elem) *Expr {
	return &Expr{Lhs: lhs, Op: op, Rhs: rhs}
}

// NewUnary builds a unary node. The node takes ownership of operand.
func NewUnary(op Op, operand Elem) *Unary {
	return &Unary{Op: op, Operand: operand}
}

func Add(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpAdd, rhs) }
func Sub(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpSub, rhs) }
func Mul(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpMul, rhs) }
func Div(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpDiv, rhs) }
func Mod(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpMod, rhs) }
func Exp(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpExp, rhs) }
func Min(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpMin, rhs) }
func Max(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpMax, rhs) }
func Lt(lhs, rhs Elem) *Expr     { return NewExpr(lhs, OpLt, rhs) }
func Lte(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpLte, rhs) }
func Gt(lhs, rhs Elem) *Expr     { return NewExpr(lhs, OpGt, rhs) }
func Gte(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpGte, rhs) }
func Eq(lhs, rhs Elem) *Expr     { return NewExpr(lhs, OpEq, rhs) }
func Neq(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpNeq, rhs) }
func Shl(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpShl, rhs) }
func Shr(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpShr, rhs) }
func And(lhs, rhs Elem) *Expr    { return NewExpr(lhs, OpAnd, rhs) }
func Or(lhs, rhs Elem) *Expr     { return NewExpr(lhs, OpOr, rhs) }
func BitAnd(lhs, rhs Elem) *Expr { return NewExpr(lhs, OpBitAnd, rhs) }
func BitOr(lhs, rhs Elem) *Expr  { return NewExpr(lhs, OpBitOr, rhs) }
func BitXor(lhs, rhs Elem) *Expr { return NewExpr(lhs, OpBitXor, rhs) }

// Cast converts lhs to the type of the literal witness rhs.
func Cast(lhs, rhs Elem) *Expr { return NewExpr(lhs, OpCast, rhs) }

func Not(x Elem) *Unary    { return NewUnary(OpNot, x) }
func BitNot(x Elem) *Unary { return NewUnary(OpBitNot, x) }
