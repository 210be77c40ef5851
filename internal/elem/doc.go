// Package elem implements symbolic range elements: the expression trees that
// describe the lower and upper bound of a program variable.
//
// A bound is an Elem, a closed union over five variants:
//
//	*Dynamic  the current min or max bound of another variable
//	Concrete  a literal value
//	*Expr     a binary operation over two owned sub-elements
//	*Unary    a unary operation over one owned sub-element
//	Null      the empty element
//
// Trees are built by callers with the builder functions (Add, Sub, Min, Cast,
// Not, ...), then evaluated against a Graph. Evaluation is a stateless
// bottom-up fold: it reads the graph, never writes it, and never mutates the
// tree. Only UpdateDeps mutates a tree, and only the variable ids held by
// Dynamic leaves.
//
// # Evaluation modes
//
// Eval and Simplify share one walker and differ only at Dynamic leaves.
// Eval collapses as much as the graph allows. Simplify leaves references to
// symbolic (unconstrained) variables in place so the result stays readable for
// humans and for further constraint derivation.
//
// # Fallback
//
// When an operator kernel cannot produce a literal (an operand is still
// symbolic, kinds are incompatible, division by zero), ExecOp returns a copy of
// the original, unevaluated node. Non-computability is an expected outcome on
// partially constrained programs, not an error, and no information is lost:
// the node can be evaluated again once the graph knows more.
//
// Programmer errors are different. A node whose operator does not match its
// arity, or an operator outside the enumeration, panics with *InvariantError.
package elem
