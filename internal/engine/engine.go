package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shekhirin/pyrometer/internal/elem"
)

// Recorder stores evaluation records. inserted is false when an identical
// (snapshot, expression, mode) record already exists.
// Implemented by store.Store.
type Recorder interface {
	WriteEvaluation(ctx context.Context, ev Evaluation) (inserted bool, err error)
}

// Engine evaluates range elements against one graph.
type Engine struct {
	graph      elem.Graph
	ops        elem.Operators
	recorder   Recorder
	snapshotID string
	clock      SeqSource
	logger     *slog.Logger
	names      elem.Namer
	maxLookups int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRecorder records every evaluate and simplify call under snapshotID.
func WithRecorder(r Recorder, snapshotID string) Option {
	return func(e *Engine) {
		e.recorder = r
		e.snapshotID = snapshotID
	}
}

// WithClock sets the source of evaluation sequence numbers.
func WithClock(c SeqSource) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithNamer sets how variables are named in log output.
func WithNamer(n elem.Namer) Option {
	return func(e *Engine) {
		e.names = n
	}
}

// WithMaxLookups sets the per-evaluation lookup quota.
//
// Default: 100000 lookups (DefaultMaxLookups). Zero disables the quota.
func WithMaxLookups(n int) Option {
	return func(e *Engine) {
		e.maxLookups = n
	}
}

// New creates an Engine over g using ops as operator kernels.
func New(g elem.Graph, ops elem.Operators, opts ...Option) *Engine {
	e := &Engine{
		graph:      g,
		ops:        ops,
		clock:      NewClock(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxLookups: DefaultMaxLookups,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SnapshotID returns the snapshot records are filed under.
func (e *Engine) SnapshotID() string {
	return e.snapshotID
}

func (e *Engine) analyzer() elem.Analyzer {
	return elem.Bind(meteredGraph{Graph: e.graph, quota: NewQuotaEnforcer(e.maxLookups)}, e.ops)
}

// Evaluate reduces x as far as concrete operands allow.
func (e *Engine) Evaluate(ctx context.Context, x elem.Elem) (elem.Elem, error) {
	ev, err := e.Reduce(ctx, x, elem.ModeEval)
	return ev.Output, err
}

// Simplify reduces x, keeping symbolic variables as references.
func (e *Engine) Simplify(ctx context.Context, x elem.Elem) (elem.Elem, error) {
	ev, err := e.Reduce(ctx, x, elem.ModeSimplify)
	return ev.Output, err
}

// Reduce runs one evaluation in the given mode and returns its full record.
// The record is written to the recorder, when one is configured. A recorder
// failure is returned together with the completed record.
func (e *Engine) Reduce(ctx context.Context, x elem.Elem, mode elem.Mode) (Evaluation, error) {
	out, err := e.reduce(x, mode)
	if err != nil {
		e.logger.Error("evaluation failed",
			"mode", mode.String(),
			"error", err,
		)
		return Evaluation{}, newTreeError(err)
	}

	ev := Evaluation{
		Seq:        e.clock.Next(),
		SnapshotID: e.snapshotID,
		Mode:       mode,
		ExprHash:   elem.MustHash(x),
		OutputHash: elem.MustHash(out),
		Input:      x,
		Output:     out,
		Outcome:    OutcomeOf(out),
	}

	e.logger.Debug("evaluated expression",
		"seq", ev.Seq,
		"mode", mode.String(),
		"expr", elem.Format(x, e.names),
		"result", elem.Format(out, e.names),
		"outcome", string(ev.Outcome),
	)

	if e.recorder == nil {
		return ev, nil
	}
	inserted, err := e.recorder.WriteEvaluation(ctx, ev)
	if err != nil {
		return ev, &RuntimeError{
			Code:     ErrCodeRecordFailed,
			Message:  "write evaluation",
			ExprHash: ev.ExprHash,
			Err:      err,
		}
	}
	if !inserted {
		e.logger.Debug("evaluation already recorded",
			"snapshot", e.snapshotID,
			"expr_hash", ev.ExprHash,
			"mode", mode.String(),
		)
	}
	return ev, nil
}

func (e *Engine) reduce(x elem.Elem, mode elem.Mode) (out elem.Elem, err error) {
	defer recoverTree(&err)
	return elem.Reduce(x, e.analyzer(), mode), nil
}

// Equal reports whether both elements evaluate to equal literals.
// Expressions that stay symbolic are never equal.
func (e *Engine) Equal(x, y elem.Elem) (bool, error) {
	eq, err := e.rangeEq(x, y)
	if err != nil {
		return false, newTreeError(err)
	}
	return eq, nil
}

func (e *Engine) rangeEq(x, y elem.Elem) (eq bool, err error) {
	defer recoverTree(&err)
	return elem.RangeEq(x, y, e.analyzer()), nil
}

// Order compares two literal elements. ok is false when either side is not a
// literal or the literals are not comparable.
func (e *Engine) Order(x, y elem.Elem) (cmp int, ok bool) {
	return elem.RangeOrd(x, y)
}

// Dependencies lists the variables x refers to, left to right, duplicates
// kept.
func (e *Engine) Dependencies(x elem.Elem) []elem.VarID {
	return elem.DependentOn(x)
}

// DependencySet lists the distinct variables x refers to in id order.
func (e *Engine) DependencySet(x elem.Elem) []elem.VarID {
	return elem.DependencySet(x)
}

// Rewrite retargets the references in x through mapping, in place. Every
// target must exist in the graph; on error x is left untouched.
func (e *Engine) Rewrite(x elem.Elem, mapping map[elem.VarID]elem.VarID) error {
	for from, to := range mapping {
		if _, ok := e.graph.Var(to); !ok {
			return &RuntimeError{
				Code:    ErrCodeUnknownVariable,
				Message: fmt.Sprintf("rewrite %d -> %d: target not in graph", from, to),
			}
		}
	}
	elem.UpdateDeps(x, mapping)
	e.logger.Debug("rewrote expression",
		"mappings", len(mapping),
		"expr", elem.Format(x, e.names),
	)
	return nil
}

// recoverTree converts the panics raised by malformed trees and exhausted
// quotas into errors. Other panics are re-raised.
func recoverTree(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch v := r.(type) {
	case *elem.InvariantError:
		*errp = v
	case *LookupsExceededError:
		*errp = v
	default:
		panic(r)
	}
}
