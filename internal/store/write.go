package store

import (
	"context"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/graph"
)

var _ engine.Recorder = (*Store)(nil)

// WriteSnapshot stores a frozen graph and its variables in one transaction.
//
// Writing the same snapshot twice is a no-op. Writing a different graph under
// an existing id is an error: snapshots are immutable.
func (s *Store) WriteSnapshot(ctx context.Context, snap graph.Snapshot) error {
	vars := snap.Graph.Vars()
	hash, err := graphHash(vars)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, seq, graph_hash, var_count)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots), ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, snap.ID, hash, len(vars))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write snapshot %s: rows affected: %w", snap.ID, err)
	}

	if rows == 0 {
		var existing string
		if err := tx.QueryRowContext(ctx, `SELECT graph_hash FROM snapshots WHERE id = ?`, snap.ID).Scan(&existing); err != nil {
			return fmt.Errorf("write snapshot %s: read existing: %w", snap.ID, err)
		}
		if existing != hash {
			return fmt.Errorf("write snapshot %s: id already holds a different graph", snap.ID)
		}
		return nil
	}

	for _, v := range vars {
		typeText, err := marshalType(v.Type)
		if err != nil {
			return fmt.Errorf("write snapshot %s: variable %s: %w", snap.ID, v.Name, err)
		}
		loc, err := marshalLoc(v.Loc)
		if err != nil {
			return fmt.Errorf("write snapshot %s: variable %s: %w", snap.ID, v.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variables (snapshot_id, var_id, name, type, symbolic, loc)
			VALUES (?, ?, ?, ?, ?, ?)
		`, snap.ID, int64(v.ID), v.Name, typeText, v.Symbolic, loc)
		if err != nil {
			return fmt.Errorf("write snapshot %s: variable %s: %w", snap.ID, v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot %s: commit: %w", snap.ID, err)
	}
	return nil
}

// WriteEvaluation appends an evaluation record.
//
// Uses ON CONFLICT(snapshot_id, expr_hash, mode) DO NOTHING: the first record
// of an expression wins and inserted reports whether this call added it.
// The snapshot must exist (foreign key constraint).
func (s *Store) WriteEvaluation(ctx context.Context, ev engine.Evaluation) (bool, error) {
	input, err := elem.Marshal(ev.Input)
	if err != nil {
		return false, fmt.Errorf("write evaluation: input: %w", err)
	}
	output, err := elem.Marshal(ev.Output)
	if err != nil {
		return false, fmt.Errorf("write evaluation: output: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(snapshot_id, seq, mode, expr_hash, input, output, output_hash, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_id, expr_hash, mode) DO NOTHING
	`,
		ev.SnapshotID,
		ev.Seq,
		ev.Mode.String(),
		ev.ExprHash,
		string(input),
		string(output),
		ev.OutputHash,
		string(ev.Outcome),
	)
	if err != nil {
		return false, fmt.Errorf("write evaluation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write evaluation: rows affected: %w", err)
	}
	return rows > 0, nil
}
