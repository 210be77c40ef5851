package engine

import "github.com/shekhirin/pyrometer/internal/elem"

// Outcome summarizes what an evaluation produced.
type Outcome string

const (
	// OutcomeResolved means the result is a single literal.
	OutcomeResolved Outcome = "resolved"

	// OutcomeSymbolic means part of the tree stayed unevaluated.
	OutcomeSymbolic Outcome = "symbolic"

	// OutcomeEmpty means the result is the null element.
	OutcomeEmpty Outcome = "empty"
)

// OutcomeOf classifies an evaluation result.
func OutcomeOf(out elem.Elem) Outcome {
	if elem.IsNull(out) {
		return OutcomeEmpty
	}
	if _, ok := elem.AsConcrete(out); ok {
		return OutcomeResolved
	}
	return OutcomeSymbolic
}

// Evaluation is one audit record: an input tree, the mode it was reduced in
// and what came out.
//
// ExprHash and OutputHash are location-free content hashes (elem.Hash), so
// the same expression evaluated twice against the same snapshot maps to the
// same record.
type Evaluation struct {
	Seq        int64
	SnapshotID string
	Mode       elem.Mode
	ExprHash   string
	OutputHash string
	Input      elem.Elem
	Output     elem.Elem
	Outcome    Outcome
}
