package elem

import (
	"slices"

	"github.com/shekhirin/pyrometer/internal/concrete"
)

// DependentOn lists the variable ids referenced by e in left-to-right order.
// Repeated references are kept.
func DependentOn(e Elem) []VarID {
	var out []VarID
	walkDeps(e, func(d *Dynamic) { out = append(out, d.ID) })
	return out
}

// DependencySet is DependentOn with duplicates removed, sorted ascending.
func DependencySet(e Elem) []VarID {
	ids := DependentOn(e)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// UpdateDeps rewrites, in place, every referenced id that appears as a key of
// mapping. Ids absent from mapping are left alone.
func UpdateDeps(e Elem, mapping map[VarID]VarID) {
	walkDeps(e, func(d *Dynamic) {
		if to, ok := mapping[d.ID]; ok {
			d.ID = to
		}
	})
}

func walkDeps(e Elem, visit func(*Dynamic)) {
	switch n := e.(type) {
	case *Dynamic:
		visit(n)
	case *Expr:
		walkDeps(n.Lhs, visit)
		walkDeps(n.Rhs, visit)
	case *Unary:
		walkDeps(n.Operand, visit)
	}
}

// Clone returns a deep copy of e. Literal payloads are immutable and shared.
func Clone(e Elem) Elem {
	switch n := e.(type) {
	case *Dynamic:
		return n.clone()
	case *Expr:
		return n.Clone()
	case *Unary:
		return n.Clone()
	default:
		return e
	}
}

func (d *Dynamic) clone() *Dynamic {
	cp := *d
	return &cp
}

// Clone returns a deep copy of x.
func (x *Expr) Clone() *Expr {
	return &Expr{Lhs: Clone(x.Lhs), Op: x.Op, Rhs: Clone(x.Rhs)}
}

// Clone returns a deep copy of u.
func (u *Unary) Clone() *Unary {
	return &Unary{Op: u.Op, Operand: Clone(u.Operand)}
}

// Equal reports structural equality. Source locations are ignored; literals
// must match in kind, width and payload.
func Equal(a, b Elem) bool {
	switch x := a.(type) {
	case *Dynamic:
		y, ok := b.(*Dynamic)
		return ok && x.ID == y.ID && x.Side == y.Side
	case Concrete:
		y, ok := b.(Concrete)
		return ok && sameLiteral(x.Val, y.Val)
	case *Expr:
		y, ok := b.(*Expr)
		return ok && x.Op == y.Op && Equal(x.Lhs, y.Lhs) && Equal(x.Rhs, y.Rhs)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case nil, Null:
		return IsNull(b)
	default:
		return false
	}
}

func sameLiteral(a, b concrete.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.String() == b.String()
}
