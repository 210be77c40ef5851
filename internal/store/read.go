package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	ID          string
	Seq         int64
	GraphHash   string
	VarCount    int
	Evaluations int
}

// ReadSnapshot rebuilds a stored graph. Returns ErrNotFound if the snapshot
// does not exist.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (graph.Snapshot, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT var_count FROM snapshots WHERE id = ?`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT var_id, name, type, symbolic, loc
		FROM variables
		WHERE snapshot_id = ?
		ORDER BY var_id ASC
	`, id)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	g := graph.New()
	for rows.Next() {
		var (
			varID    int64
			v        graph.Var
			typeText string
			loc      sql.NullString
		)
		if err := rows.Scan(&varID, &v.Name, &typeText, &v.Symbolic, &loc); err != nil {
			return graph.Snapshot{}, fmt.Errorf("scan variable: %w", err)
		}
		v.ID = elem.VarID(varID)
		if v.Type, err = unmarshalType(typeText); err != nil {
			return graph.Snapshot{}, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if v.Loc, err = unmarshalLoc(loc); err != nil {
			return graph.Snapshot{}, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if _, err := g.Add(v); err != nil {
			return graph.Snapshot{}, fmt.Errorf("rebuild snapshot %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return graph.Snapshot{}, fmt.Errorf("iterate variables: %w", err)
	}
	if g.Len() != count {
		return graph.Snapshot{}, fmt.Errorf("snapshot %s: expected %d variables, found %d", id, count, g.Len())
	}

	return graph.Snapshot{ID: id, Graph: g}, nil
}

// ListSnapshots returns all snapshots in the order they were written.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.seq, s.graph_hash, s.var_count,
		       (SELECT COUNT(*) FROM evaluations e WHERE e.snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.seq ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	infos := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Seq, &info.GraphHash, &info.VarCount, &info.Evaluations); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// ReadEvaluations returns the evaluation log of a snapshot.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadEvaluations(ctx context.Context, snapshotID string) ([]engine.Evaluation, error) {
	return s.QueryEvaluations(ctx, EvaluationQuery{SnapshotID: snapshotID})
}

func scanEvaluation(rows *sql.Rows) (engine.Evaluation, error) {
	var (
		ev            engine.Evaluation
		mode, outcome string
		input, output string
	)
	if err := rows.Scan(&ev.Seq, &mode, &ev.ExprHash, &input, &output, &ev.OutputHash, &outcome); err != nil {
		return engine.Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}

	m, ok := elem.ParseMode(mode)
	if !ok {
		return engine.Evaluation{}, fmt.Errorf("evaluation seq %d: unknown mode %q", ev.Seq, mode)
	}
	ev.Mode = m
	ev.Outcome = engine.Outcome(outcome)

	var err error
	if ev.Input, err = elem.Unmarshal([]byte(input)); err != nil {
		return engine.Evaluation{}, fmt.Errorf("evaluation seq %d input: %w", ev.Seq, err)
	}
	if ev.Output, err = elem.Unmarshal([]byte(output)); err != nil {
		return engine.Evaluation{}, fmt.Errorf("evaluation seq %d output: %w", ev.Seq, err)
	}
	return ev, nil
}
