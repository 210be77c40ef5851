package elem

import (
	"fmt"
	"strings"
)

// Namer maps variable ids to display names.
type Namer func(VarID) string

func defaultNamer(id VarID) string {
	return fmt.Sprintf("#%d", id)
}

// Format renders e with variable names supplied by names. A nil Namer prints
// ids as #N.
func Format(e Elem, names Namer) string {
	if names == nil {
		names = defaultNamer
	}
	var b strings.Builder
	format(&b, e, names)
	return b.String()
}

func format(b *strings.Builder, e Elem, names Namer) {
	switch n := e.(type) {
	case nil, Null:
		b.WriteString("null")
	case *Dynamic:
		b.WriteString(names(n.ID))
		b.WriteByte('.')
		b.WriteString(n.Side.String())
	case Concrete:
		if n.Val == nil {
			b.WriteString("null")
			return
		}
		b.WriteString(n.Val.String())
	case *Expr:
		if n.Op.Valid() && opTable[n.Op].prefix {
			b.WriteString(n.Op.String())
			b.WriteByte('(')
			format(b, n.Lhs, names)
			b.WriteString(", ")
			format(b, n.Rhs, names)
			b.WriteByte(')')
			return
		}
		b.WriteByte('(')
		format(b, n.Lhs, names)
		b.WriteByte(' ')
		b.WriteString(n.Op.Symbol())
		b.WriteByte(' ')
		format(b, n.Rhs, names)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(n.Op.Symbol())
		format(b, n.Operand, names)
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func (d *Dynamic) String() string { return Format(d, nil) }
func (c Concrete) String() string { return Format(c, nil) }
func (x *Expr) String() string    { return Format(x, nil) }
func (u *Unary) String() string   { return Format(u, nil) }
func (Null) String() string       { return "null" }
