package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
)

// EvaluationQuery selects evaluation records. Zero fields match everything
// except SnapshotID, which is required.
type EvaluationQuery struct {
	SnapshotID string
	Mode       *elem.Mode
	Outcome    engine.Outcome
	ExprHash   string
	AfterSeq   int64 // only records with seq > AfterSeq
	Limit      int   // 0 = no limit
}

// predicate is one "column = ?" style condition with its parameter.
type predicate struct {
	sql   string
	param any
}

// compile renders q as parameterized SQL. Values are never interpolated and
// every query ends with the stable ORDER BY seq ASC, id ASC.
func (q EvaluationQuery) compile() (string, []any, error) {
	if q.SnapshotID == "" {
		return "", nil, fmt.Errorf("evaluation query: snapshot id is required")
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("evaluation query: negative limit %d", q.Limit)
	}
	switch q.Outcome {
	case "", engine.OutcomeResolved, engine.OutcomeSymbolic, engine.OutcomeEmpty:
	default:
		return "", nil, fmt.Errorf("evaluation query: unknown outcome %q", q.Outcome)
	}

	preds := []predicate{{"snapshot_id = ?", q.SnapshotID}}
	if q.Mode != nil {
		preds = append(preds, predicate{"mode = ?", q.Mode.String()})
	}
	if q.Outcome != "" {
		preds = append(preds, predicate{"outcome = ?", string(q.Outcome)})
	}
	if q.ExprHash != "" {
		preds = append(preds, predicate{"expr_hash = ?", q.ExprHash})
	}
	if q.AfterSeq > 0 {
		preds = append(preds, predicate{"seq > ?", q.AfterSeq})
	}

	where := make([]string, len(preds))
	params := make([]any, len(preds))
	for i, p := range preds {
		where[i] = p.sql
		params[i] = p.param
	}

	var b strings.Builder
	b.WriteString("SELECT seq, mode, expr_hash, input, output, output_hash, outcome FROM evaluations")
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	b.WriteString(" ORDER BY seq ASC, id ASC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// QueryEvaluations returns the records matching q in seq order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryEvaluations(ctx context.Context, q EvaluationQuery) ([]engine.Evaluation, error) {
	query, params, err := q.compile()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evals := []engine.Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		ev.SnapshotID = q.SnapshotID
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return evals, nil
}

// LastSeq returns the highest seq recorded for a snapshot, or 0 when the
// snapshot has no records.
func (s *Store) LastSeq(ctx context.Context, snapshotID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM evaluations WHERE snapshot_id = ?`,
		snapshotID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
