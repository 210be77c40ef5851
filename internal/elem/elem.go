package elem

import (
	"fmt"

	"github.com/shekhirin/pyrometer/internal/concrete"
)

// VarID identifies a variable node in the analysis graph.
type VarID uint32

// Side selects which bound of a variable's range a Dynamic reference reads.
type Side int

const (
	RangeMin Side = iota
	RangeMax
)

func (s Side) String() string {
	if s == RangeMax {
		return "range_max"
	}
	return "range_min"
}

// ParseSide accepts "min", "max", "range_min" and "range_max".
func ParseSide(s string) (Side, error) {
	switch s {
	case "min", "range_min":
		return RangeMin, nil
	case "max", "range_max":
		return RangeMax, nil
	default:
		return RangeMin, fmt.Errorf("unknown range side %q", s)
	}
}

// Loc is a source span. Implicit marks values the analyzer made up rather than
// read from source.
type Loc struct {
	File     int
	Start    int
	End      int
	Implicit bool
}

// ImplicitLoc is the location attached to synthesized literals.
var ImplicitLoc = Loc{Implicit: true}

func (l Loc) String() string {
	if l.Implicit {
		return "implicit"
	}
	return fmt.Sprintf("%d:%d-%d", l.File, l.Start, l.End)
}

// Elem is a symbolic range element. Only *Dynamic, Concrete, *Expr, *Unary and
// Null implement it.
type Elem interface {
	isElem() // Sealed
	String() string
}

// Dynamic refers to one bound of another variable's range.
type Dynamic struct {
	ID   VarID
	Side Side
	Loc  Loc
}

func (*Dynamic) isElem() {}

// Concrete is a literal bound.
type Concrete struct {
	Val concrete.Value
	Loc Loc
}

func (Concrete) isElem() {}

// Expr is a binary operation node. It exclusively owns both operands.
type Expr struct {
	Lhs Elem
	Op  Op
	Rhs Elem
}

func (*Expr) isElem() {}

// Unary is a unary operation node. It exclusively owns its operand.
type Unary struct {
	Op      Op
	Operand Elem
}

func (*Unary) isElem() {}

// Null is the empty element.
type Null struct{}

func (Null) isElem() {}

// Range is the [Min, Max] pair of bounds for a builtin-typed variable.
type Range struct {
	Min Elem
	Max Elem
}

// Side returns the bound selected by s.
func (r *Range) Side(s Side) Elem {
	if s == RangeMax {
		return r.Max
	}
	return r.Min
}

// VarType is the graph's type information for a variable. Only BuiltinType,
// ConcreteType and OpaqueType implement it.
type VarType interface {
	isVarType()
}

// BuiltinType is a primitive type ("uint256", "int8", "bool", ...) with an
// optional known range.
type BuiltinType struct {
	Name  string
	Range *Range
}

func (BuiltinType) isVarType() {}

// ConcreteType is a variable whose value is known exactly.
type ConcreteType struct {
	Value concrete.Value
}

func (ConcreteType) isVarType() {}

// OpaqueType covers every other type (structs, mappings, contracts). Bounds of
// opaque variables never resolve.
type OpaqueType struct {
	Name string
}

func (OpaqueType) isVarType() {}

// VarInfo is what the graph knows about a variable.
type VarInfo struct {
	Type VarType
	Loc  *Loc
}

// Graph is the read-only view of the analysis graph that evaluation needs.
type Graph interface {
	// Var returns the type information of id. The second result is false for
	// unknown ids.
	Var(id VarID) (VarInfo, bool)
	// IsSymbolic reports whether id is an unconstrained input whose bounds
	// should stay symbolic when simplifying.
	IsSymbolic(id VarID) bool
}

// Operators computes literal results for operator nodes. A false second
// result means the operation is not computable for these operands.
type Operators interface {
	Binary(op Op, lhs, rhs Elem) (Elem, bool)
	Unary(op Op, operand Elem) (Elem, bool)
}

// Analyzer is a graph together with the operator kernels used to fold it.
type Analyzer interface {
	Graph
	Operators
}

type analyzer struct {
	Graph
	Operators
}

// Bind pairs a graph with an operator set.
func Bind(g Graph, ops Operators) Analyzer {
	return analyzer{Graph: g, Operators: ops}
}

// AsConcrete returns e as a literal when it is one.
func AsConcrete(e Elem) (Concrete, bool) {
	c, ok := e.(Concrete)
	return c, ok && c.Val != nil
}

// IsNull reports whether e is the empty element. A nil Elem counts as empty.
func IsNull(e Elem) bool {
	if e == nil {
		return true
	}
	_, ok := e.(Null)
	return ok
}
