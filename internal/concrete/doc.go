// Package concrete provides the literal value types that range expressions
// bottom out in, and the comparator that decides equality and ordering between
// two literals.
//
// This package contains value definitions and pure functions only. It imports
// nothing internal; every other package that needs to talk about a concrete
// number, byte string or array goes through Value.
//
// Key constraints:
//   - Integers are arbitrary precision (*big.Int) but always carry a bit width
//     between 8 and 256; kernels wrap results back into that width.
//   - Values are immutable once constructed. Constructors copy their inputs.
//   - Comparison never looks at context: Equal and Compare are pure functions
//     of their two operands.
//   - Integers in JSON are decimal strings, never JSON numbers, so 256-bit
//     values survive a round trip through encoding/json.
package concrete
