// Package engine is the analyzer facade over range elements.
//
// An Engine binds a variable graph to a set of operator kernels and exposes
// the element operations (evaluate, simplify, equality, ordering, dependency
// listing, rewriting) as methods that return errors instead of panicking on
// malformed trees.
//
// Evaluation is a pure function of the tree and the graph. Each evaluate or
// simplify call may be recorded as an Evaluation in an audit log (see the
// store package), stamped with a logical sequence number from a Clock. The
// engine never reads that log back while answering queries; Replay uses it
// only to check that a stored snapshot still produces the recorded outputs.
//
// Several goroutines may call the same Engine concurrently as long as nobody
// mutates the underlying graph at the same time. Rewrite mutates the tree it
// is given and must not race with an evaluation of that tree.
package engine
