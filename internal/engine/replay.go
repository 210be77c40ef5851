package engine

import (
	"context"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/elem"
)

// Mismatch is a recorded evaluation whose output differs on replay.
type Mismatch struct {
	Seq      int64
	Mode     elem.Mode
	ExprHash string
	Want     string // recorded output hash
	Got      string // replayed output hash
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Checked    int
	Mismatches []Mismatch
}

// OK reports whether every record reproduced.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-evaluates recorded inputs and compares output hashes.
//
// Evaluation is deterministic, so the same snapshot must give byte-identical
// outputs for every record, in any order. Replayed evaluations are not
// recorded again. Records are processed in the order given; store.ReadEvaluations
// returns them in seq order.
func (e *Engine) Replay(ctx context.Context, records []Evaluation) (ReplayResult, error) {
	var res ReplayResult
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out, err := e.reduce(rec.Input, rec.Mode)
		if err != nil {
			return res, fmt.Errorf("replay seq %d: %w", rec.Seq, newTreeError(err))
		}
		res.Checked++

		got := elem.MustHash(out)
		if got != rec.OutputHash {
			e.logger.Warn("replay mismatch",
				"seq", rec.Seq,
				"mode", rec.Mode.String(),
				"expr_hash", rec.ExprHash,
				"want", rec.OutputHash,
				"got", got,
			)
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:      rec.Seq,
				Mode:     rec.Mode,
				ExprHash: rec.ExprHash,
				Want:     rec.OutputHash,
				Got:      got,
			})
		}
	}

	e.logger.Info("replay finished",
		"snapshot", e.snapshotID,
		"checked", res.Checked,
		"mismatches", len(res.Mismatches),
	)
	return res, nil
}
